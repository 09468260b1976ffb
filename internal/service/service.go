package service

import (
	"go.uber.org/zap"

	"expensio/backend/config"
	"expensio/backend/internal/repository"
	"expensio/backend/pkg/currency"
	"expensio/backend/pkg/jwt"
	"expensio/backend/pkg/redis"
)

// Service 聚合所有业务服务，供 Handler 层统一注入
type Service struct {
	Auth         AuthService
	User         UserService
	Expense      ExpenseService
	Approval     ApprovalService
	ApprovalRule ApprovalRuleService
	Export       ExportService
}

// NewService 创建 Service 聚合实例
// rdb 允许为 nil（Redis 不可用时黑名单/限流降级）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	converter currency.Converter,
	logger *zap.Logger,
) *Service {
	approval := NewApprovalService(repo, converter, logger)

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		User:         NewUserService(repo, logger),
		Expense:      NewExpenseService(repo, approval, converter, logger),
		Approval:     approval,
		ApprovalRule: NewApprovalRuleService(repo, logger),
		Export:       NewExportService(repo, logger),
	}
}
