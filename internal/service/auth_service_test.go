package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"expensio/backend/config"
	"expensio/backend/internal/dto"
	"expensio/backend/internal/model"
	"expensio/backend/pkg/jwt"
)

func newAuthEnv() (*testEnv, AuthService) {
	env := newTestEnv()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-at-least-16-chars",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := NewAuthService(cfg, env.repo, jwtMgr, nil, testLogger())
	return env, svc
}

// ────────────────────── Signup ──────────────────────

func TestSignup_CreatesCompanyAndAdmin(t *testing.T) {
	env, svc := newAuthEnv()

	resp, err := svc.Signup(context.Background(), &dto.SignupRequest{
		Email:       "boss@example.com",
		Password:    "password123",
		CompanyName: "测试公司",
		Currency:    "EUR",
	})
	if err != nil {
		t.Fatalf("Signup 失败: %v", err)
	}

	user, ok := env.users.users[resp.UserID]
	if !ok {
		t.Fatal("期望创建管理员账号")
	}
	if user.Role != model.RoleAdmin {
		t.Errorf("首个账号应为 Admin，实际=%s", user.Role)
	}
	company, ok := env.companies.companies[resp.CompanyID]
	if !ok {
		t.Fatal("期望创建公司")
	}
	if company.Currency != "EUR" {
		t.Errorf("期望本位币 EUR，实际=%s", company.Currency)
	}
	if user.CompanyID != company.CompanyID {
		t.Errorf("管理员应归属新公司，实际=%s", user.CompanyID)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	env, svc := newAuthEnv()
	env.addCompany("c1", "USD")
	env.addUser("u1", "c1", model.RoleAdmin, nil) // u1@example.com

	_, err := svc.Signup(context.Background(), &dto.SignupRequest{
		Email:       "u1@example.com",
		Password:    "password123",
		CompanyName: "另一家",
		Currency:    "USD",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("期望 ErrEmailTaken，实际=%v", err)
	}
}

// ────────────────────── Login ──────────────────────

func TestLogin_Success(t *testing.T) {
	env, svc := newAuthEnv()
	env.addCompany("c1", "USD")
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := env.addUser("u1", "c1", model.RoleEmployee, nil)
	user.PasswordHash = string(hash)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "u1@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("期望返回 Token 对")
	}
	if resp.User.Role != model.RoleEmployee {
		t.Errorf("期望带出用户角色，实际=%s", resp.User.Role)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	env, svc := newAuthEnv()
	env.addCompany("c1", "USD")
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := env.addUser("u1", "c1", model.RoleEmployee, nil)
	user.PasswordHash = string(hash)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "u1@example.com",
		Password: "wrong-password",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际=%v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	_, svc := newAuthEnv()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际=%v", err)
	}
}

// ────────────────────── RefreshToken ──────────────────────

func TestRefreshToken_Success(t *testing.T) {
	env, svc := newAuthEnv()
	env.addCompany("c1", "USD")
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := env.addUser("u1", "c1", model.RoleEmployee, nil)
	user.PasswordHash = string(hash)

	login, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "u1@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}

	resp, err := svc.RefreshToken(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken 失败: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("期望签发新的 AccessToken")
	}
}

func TestRefreshToken_RejectsAccessToken(t *testing.T) {
	env, svc := newAuthEnv()
	env.addCompany("c1", "USD")
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := env.addUser("u1", "c1", model.RoleEmployee, nil)
	user.PasswordHash = string(hash)

	login, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "u1@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}

	// Access Token 不能用于刷新
	_, err = svc.RefreshToken(context.Background(), login.AccessToken)
	if !errors.Is(err, ErrInvalidRefresh) {
		t.Errorf("期望 ErrInvalidRefresh，实际=%v", err)
	}
}

func TestRefreshToken_Garbage(t *testing.T) {
	_, svc := newAuthEnv()

	_, err := svc.RefreshToken(context.Background(), "not-a-token")
	if !errors.Is(err, ErrInvalidRefresh) {
		t.Errorf("期望 ErrInvalidRefresh，实际=%v", err)
	}
}

// ────────────────────── Logout ──────────────────────

func TestLogout_NoRedisDegradesToNoop(t *testing.T) {
	env, svc := newAuthEnv()
	env.addCompany("c1", "USD")
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := env.addUser("u1", "c1", model.RoleEmployee, nil)
	user.PasswordHash = string(hash)

	login, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "u1@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}

	if err := svc.Logout(context.Background(), login.RefreshToken); err != nil {
		t.Errorf("Redis 缺席时 Logout 应降级为 no-op，实际=%v", err)
	}
}
