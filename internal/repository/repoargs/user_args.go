package repoargs

import "github.com/aldenshop/alden/internal/domain"

type CreateUser struct {
	Name     string
	Email    string
	Password string
	Role     domain.RoleType
}
