package handler

import "expensio/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Expense      *ExpenseHandler
	Approval     *ApprovalHandler
	ApprovalRule *ApprovalRuleHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Expense:      NewExpenseHandler(svc.Expense),
		Approval:     NewApprovalHandler(svc.Approval),
		ApprovalRule: NewApprovalRuleHandler(svc.ApprovalRule),
		Export:       NewExportHandler(svc.Export),
	}
}
