package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/aldenshop/alden/internal/config"
	"github.com/aldenshop/alden/internal/repository/pgrepo"
	"github.com/aldenshop/alden/internal/repository/repoargs"
	"github.com/aldenshop/alden/internal/service"
	"github.com/aldenshop/alden/internal/transport/api"
	"github.com/aldenshop/alden/internal/transport/gateway"
	"github.com/aldenshop/alden/pkg/uow"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.Infof("Starting app on %s", a.Config.RunAddress)
	conn, connErr := pgrepo.Connect(notifyCtx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return fmt.Errorf("app run: %s", connErr.Error())
	}
	defer conn.Close()

	unitOfWork, uowErr := initUOW(conn)
	if uowErr != nil {
		return fmt.Errorf("app run: %s", uowErr.Error())
	}

	gatewayClient := gateway.New(
		a.Config.GatewayBaseURL,
		a.Config.GatewayKeyID,
		a.Config.GatewaySecret,
		a.Config.GatewayTimeout,
	)

	services, sErr := service.Factory(service.FactoryArgs{
		UnitOfWork:    unitOfWork,
		GatewayClient: gatewayClient,
		JWTSecret:     []byte(a.Config.JWTUserSecret),
		GatewaySecret: []byte(a.Config.GatewaySecret),
		Currency:      a.Config.Currency,
	})
	if sErr != nil {
		return fmt.Errorf("app run: %s", sErr.Error())
	}

	router := api.New(api.RouterArgs{
		Logger:         a.Logger,
		UserService:    services.UserService,
		OrderService:   services.OrderService,
		WalletService:  services.WalletService,
		PaymentService: services.PaymentService,
		LedgerService:  services.LedgerService,
		PromoService:   services.PromoService,
		JWTSecretKey:   []byte(a.Config.JWTUserSecret),
	})

	errChan := make(chan error, 1)

	go func() {
		if runErr := router.Run(a.Config.RunAddress); runErr != nil {
			errChan <- runErr
		}
	}()

	select {
	case <-notifyCtx.Done():
		return notifyCtx.Err() //nolint:wrapcheck
	case err := <-errChan:
		return err
	}
}

func initUOW(conn *pgxpool.Pool) (*uow.UnitOfWork, error) {
	unitOfWork := uow.NewUnitOfWork(conn)

	factories := map[repoargs.RepositoryName]uow.RepositoryFactory{
		repoargs.UserRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewUserRepository(dbtx)
		},
		repoargs.OrderRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewOrderRepository(dbtx)
		},
		repoargs.WalletRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewWalletRepository(dbtx)
		},
		repoargs.LedgerRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewLedgerRepository(dbtx)
		},
		repoargs.PromoRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewPromoRepository(dbtx)
		},
		repoargs.ProductRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewProductRepository(dbtx)
		},
	}

	for name, factoryFn := range factories {
		if regErr := unitOfWork.Register(uow.RepositoryName(name), factoryFn); regErr != nil {
			return nil, fmt.Errorf("init UOW: %s", regErr.Error())
		}
	}

	return unitOfWork, nil
}
