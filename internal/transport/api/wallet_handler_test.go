package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/logger"
	"github.com/aldenshop/alden/internal/transport/api/mocks"
	"github.com/aldenshop/alden/internal/transport/api/testutils"
	"github.com/aldenshop/alden/internal/transport/api/tokens"
)

type WalletHandlerTestSuite struct {
	suite.Suite
	router            *gin.Engine
	mockCtrl          *gomock.Controller
	mockWalletService *mocks.MockWalletServicer
	jwtSecret         []byte
	userToken         string
}

func TestWalletHandlerSuite(t *testing.T) {
	suite.Run(t, new(WalletHandlerTestSuite))
}

func (s *WalletHandlerTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockWalletService = mocks.NewMockWalletServicer(s.mockCtrl)
	s.jwtSecret = []byte("super secret key")

	s.router = New(RouterArgs{
		Logger:        logger.New(os.Stdout),
		WalletService: s.mockWalletService,
		JWTSecretKey:  s.jwtSecret,
	})

	var tokenErr error
	s.userToken, tokenErr = tokens.GenerateUserJWT(testUserID, domain.RoleUser, time.Hour, s.jwtSecret)
	s.Require().NoError(tokenErr)
}

func (s *WalletHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *WalletHandlerTestSuite) request(method, url string, payload any) *http.Response {
	s.T().Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, marshalErr := json.Marshal(payload)
		s.Require().NoError(marshalErr)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: method,
		URL:    url,
		Body:   body,
	},
		testutils.WithHeader("Content-Type", "application/json"),
		testutils.WithHeader("Authorization", fmt.Sprintf("Bearer %s", s.userToken)),
	)
	s.Require().NoError(err)
	return res
}

func (s *WalletHandlerTestSuite) TestIndex() {
	wallet := &domain.Wallet{ID: 7, UserID: testUserID, Balance: decimal.NewFromInt(550)}
	entries := []domain.WalletEntry{
		{
			Direction: domain.DirectionDebit,
			Amount:    decimal.NewFromInt(450),
			Label:     "Purchase",
			Reference: "55",
			CreatedAt: time.Now(),
		},
		{
			Direction: domain.DirectionCredit,
			Amount:    decimal.NewFromInt(1000),
			Label:     "Fund Added",
			Reference: "pay_123",
			CreatedAt: time.Now().Add(-time.Hour),
		},
	}

	s.mockWalletService.EXPECT().Get(gomock.Any(), testUserID).Return(wallet, entries, nil)

	res := s.request(http.MethodGet, RouteGroup+WalletRoute, nil)
	defer func() { s.Require().NoError(res.Body.Close()) }()

	s.Equal(http.StatusOK, res.StatusCode)

	var response struct {
		Balance      float64               `json:"balance"`
		Transactions []WalletEntryResponse `json:"transactions"`
	}
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&response))
	s.InEpsilon(550.0, response.Balance, 0.0001)
	s.Require().Len(response.Transactions, 2)
	s.Equal(domain.DirectionDebit, response.Transactions[0].Direction)
	s.Equal("Purchase", response.Transactions[0].Label)
}

func (s *WalletHandlerTestSuite) TestCredit() {
	wallet := &domain.Wallet{ID: 7, UserID: testUserID, Balance: decimal.NewFromInt(1550)}

	s.mockWalletService.EXPECT().
		Credit(gomock.Any(), testUserID, decimal.NewFromInt(1000), "pay_123").
		Return(wallet, nil)

	res := s.request(http.MethodPost, RouteGroup+WalletCredit, map[string]any{
		"amount":    1000,
		"paymentId": "pay_123",
	})
	defer func() { s.Require().NoError(res.Body.Close()) }()

	s.Equal(http.StatusOK, res.StatusCode)

	var response struct {
		Balance float64 `json:"balance"`
	}
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&response))
	s.InEpsilon(1550.0, response.Balance, 0.0001)
}

func (s *WalletHandlerTestSuite) TestCredit_MissingPaymentID() {
	res := s.request(http.MethodPost, RouteGroup+WalletCredit, map[string]any{"amount": 1000})
	defer func() { s.Require().NoError(res.Body.Close()) }()

	s.Equal(http.StatusBadRequest, res.StatusCode)
}

func (s *WalletHandlerTestSuite) TestDebit() {
	wallet := &domain.Wallet{ID: 7, UserID: testUserID, Balance: decimal.NewFromInt(100)}

	s.mockWalletService.EXPECT().
		Debit(gomock.Any(), testUserID, decimal.NewFromInt(450), int64(55)).
		Return(wallet, nil)

	res := s.request(http.MethodPost, RouteGroup+WalletDebit, map[string]any{
		"amount":  450,
		"orderId": 55,
	})
	defer func() { s.Require().NoError(res.Body.Close()) }()

	s.Equal(http.StatusOK, res.StatusCode)
}

func (s *WalletHandlerTestSuite) TestDebit_NotEnoughBalance() {
	s.mockWalletService.EXPECT().
		Debit(gomock.Any(), testUserID, gomock.Any(), int64(55)).
		Return(nil, domain.ErrNotEnoughBalance)

	res := s.request(http.MethodPost, RouteGroup+WalletDebit, map[string]any{
		"amount":  9000,
		"orderId": 55,
	})
	defer func() { s.Require().NoError(res.Body.Close()) }()

	s.Equal(http.StatusBadRequest, res.StatusCode)

	var response struct {
		Error string `json:"error"`
	}
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&response))
	s.Equal(domain.ErrNotEnoughBalance.Error(), response.Error)
}
