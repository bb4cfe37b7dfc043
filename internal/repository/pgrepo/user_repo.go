package pgrepo

import (
	"context"
	"strings"

	"github.com/aldenshop/alden/internal/domain"
	"github.com/aldenshop/alden/internal/repository/repoargs"
	"github.com/aldenshop/alden/pkg/uow"
)

type UserRepository struct {
	db uow.DBTX
}

func NewUserRepository(db uow.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, created_at, updated_at, name, email, password, role`

// CreateUser создает юзера. Повторный email вернет domain.ErrDuplicateKey.
func (u *UserRepository) CreateUser(ctx context.Context, args repoargs.CreateUser) (*domain.User, error) {
	row := u.db.QueryRow(ctx,
		`INSERT INTO users (name, email, password, role) VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		args.Name, strings.ToLower(args.Email), args.Password, args.Role,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "creating user with email `%s`", args.Email)
	}
	return user, nil
}

func (u *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := u.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(email),
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by email `%s`", email)
	}
	return user, nil
}

func (u *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	row := u.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by id %d", id)
	}
	return user, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Name, &u.Email, &u.Password, &u.Role)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &u, nil
}
