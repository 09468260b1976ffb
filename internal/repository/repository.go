package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Company        CompanyRepository
	User           UserRepository
	Expense        ExpenseRepository
	ApprovalRecord ApprovalRecordRepository
	ApprovalRule   ApprovalRuleRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Company:        NewCompanyRepo(db),
		User:           NewUserRepo(db),
		Expense:        NewExpenseRepo(db),
		ApprovalRecord: NewApprovalRecordRepo(db),
		ApprovalRule:   NewApprovalRuleRepo(db),
	}
}
