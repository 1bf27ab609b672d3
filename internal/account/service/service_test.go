package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork/polaris/internal/account/domain"
	"github.com/craftwork/polaris/internal/account/repository"
	"github.com/craftwork/polaris/internal/config"
	"github.com/craftwork/polaris/pkg/apperr"
	"github.com/craftwork/polaris/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&domain.Account{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	cfg := config.Config{
		AuthJWTSecret:        "test-secret",
		AuthTokenExpiryHours: 24,
	}
	return New(zap.NewNop(), cfg, repository.New(conn), node), conn
}

func register(t *testing.T, svc domain.Service, email string) *domain.Account {
	t.Helper()
	account, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    email,
		Password: "secret123",
		Name:     "Test User",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return account
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService(t)

	account := register(t, svc, "user@example.com")
	if account.Status != domain.StatusActive {
		t.Errorf("status = %q, want active", account.Status)
	}
	if account.PasswordHash == "secret123" || account.PasswordHash == "" {
		t.Error("password stored without hashing")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.RegisterRequest
	}{
		{"bad email", domain.RegisterRequest{Email: "not-an-email", Password: "secret123", Name: "A"}},
		{"missing domain", domain.RegisterRequest{Email: "user@", Password: "secret123", Name: "A"}},
		{"short password", domain.RegisterRequest{Email: "user@example.com", Password: "12345", Name: "A"}},
		{"empty name", domain.RegisterRequest{Email: "user@example.com", Password: "secret123", Name: "   "}},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.req); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("%s: want validation error, got %v", tc.name, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "user@example.com")

	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "user@example.com",
		Password: "secret123",
		Name:     "Other",
	})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
}

// blindRepo never sees an existing email, so Register falls through to the
// insert and the unique index decides, like a lost race between two
// concurrent registrations.
type blindRepo struct {
	domain.Repository
}

func (r blindRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func TestRegisterDuplicateEmailRace(t *testing.T) {
	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&domain.Account{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	cfg := config.Config{AuthJWTSecret: "test-secret", AuthTokenExpiryHours: 24}
	svc := New(zap.NewNop(), cfg, blindRepo{repository.New(conn)}, node)

	register(t, svc, "user@example.com")

	_, err = svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "user@example.com",
		Password: "secret123",
		Name:     "Other",
	})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("want conflict from unique index, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, conn := newTestService(t)
	account := register(t, svc, "user@example.com")

	result, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:     "user@example.com",
		Password:  "secret123",
		IPAddress: "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" {
		t.Error("token is empty")
	}
	if result.Account.LastLoginAt == nil {
		t.Error("last_login_at not set")
	}

	var stored domain.Account
	if err := conn.First(&stored, "id = ?", account.ID).Error; err != nil {
		t.Fatalf("load account: %v", err)
	}
	if stored.LastLoginIP != "10.0.0.1" {
		t.Errorf("last_login_ip = %q, want 10.0.0.1", stored.LastLoginIP)
	}
}

func TestLoginFailures(t *testing.T) {
	svc, conn := newTestService(t)
	account := register(t, svc, "user@example.com")
	ctx := context.Background()

	_, err := svc.Login(ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	if !apperr.IsKind(err, apperr.KindAuthentication) || err.Error() != "Invalid email or password" {
		t.Errorf("unknown email: got %v", err)
	}

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "user@example.com", Password: "wrong-pass"})
	if !apperr.IsKind(err, apperr.KindAuthentication) || err.Error() != "Invalid email or password" {
		t.Errorf("wrong password: got %v", err)
	}

	if err := conn.Model(&domain.Account{}).Where("id = ?", account.ID).Update("status", domain.StatusBanned).Error; err != nil {
		t.Fatalf("ban account: %v", err)
	}
	_, err = svc.Login(ctx, domain.LoginRequest{Email: "user@example.com", Password: "secret123"})
	if !apperr.IsKind(err, apperr.KindAuthentication) || err.Error() != "Account has been banned" {
		t.Errorf("banned account: got %v", err)
	}

	if err := conn.Model(&domain.Account{}).Where("id = ?", account.ID).Update("status", domain.StatusInactive).Error; err != nil {
		t.Fatalf("deactivate account: %v", err)
	}
	_, err = svc.Login(ctx, domain.LoginRequest{Email: "user@example.com", Password: "secret123"})
	if !apperr.IsKind(err, apperr.KindAuthentication) || err.Error() != "Account is inactive" {
		t.Errorf("inactive account: got %v", err)
	}
}

func TestVerifyToken(t *testing.T) {
	svc, _ := newTestService(t)
	account := register(t, svc, "user@example.com")

	result, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "user@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	verified, err := svc.VerifyToken(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if verified.ID != account.ID {
		t.Errorf("verified id = %s, want %s", verified.ID, account.ID)
	}

	if _, err := svc.VerifyToken(context.Background(), "not-a-token"); !apperr.IsKind(err, apperr.KindAuthentication) {
		t.Errorf("garbage token: want authentication error, got %v", err)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	svc, _ := newTestService(t)
	account := register(t, svc, "user@example.com")

	token, err := signToken(account.ID, account.Email, "test-secret", -time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	_, err = svc.VerifyToken(context.Background(), token)
	if !apperr.IsKind(err, apperr.KindAuthentication) || err.Error() != "Token has expired" {
		t.Fatalf("want expired-token error, got %v", err)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	svc, _ := newTestService(t)
	account := register(t, svc, "user@example.com")

	token, err := signToken(account.ID, account.Email, "other-secret", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := svc.VerifyToken(context.Background(), token); !apperr.IsKind(err, apperr.KindAuthentication) {
		t.Fatalf("want authentication error, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	account := register(t, svc, "user@example.com")
	ctx := context.Background()

	if _, err := svc.ChangePassword(ctx, account.ID, "wrong-pass", "newsecret"); !apperr.IsKind(err, apperr.KindAuthentication) {
		t.Errorf("wrong old password: want authentication error, got %v", err)
	}
	if _, err := svc.ChangePassword(ctx, account.ID, "secret123", "short"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("short new password: want validation error, got %v", err)
	}
	if _, err := svc.ChangePassword(ctx, account.ID, "secret123", "newsecret"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := svc.Login(ctx, domain.LoginRequest{Email: "user@example.com", Password: "newsecret"}); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, err := svc.Login(ctx, domain.LoginRequest{Email: "user@example.com", Password: "secret123"}); err == nil {
		t.Error("login with old password should fail")
	}
}

func TestResetPassword(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "user@example.com")
	ctx := context.Background()

	if _, err := svc.ResetPassword(ctx, "nobody@example.com", "newsecret"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("unknown email: want not-found error, got %v", err)
	}
	if _, err := svc.ResetPassword(ctx, "user@example.com", "newsecret"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if _, err := svc.Login(ctx, domain.LoginRequest{Email: "user@example.com", Password: "newsecret"}); err != nil {
		t.Errorf("login with reset password: %v", err)
	}
}
