package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Account, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	VerifyToken(ctx context.Context, token string) (*Account, error)
	ChangePassword(ctx context.Context, accountID snowflake.ID, oldPassword, newPassword string) (*Account, error)
	ResetPassword(ctx context.Context, email, newPassword string) (*Account, error)
}

type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

type LoginRequest struct {
	Email     string
	Password  string
	IPAddress string
}

type LoginResult struct {
	Account *Account
	Token   string
}
