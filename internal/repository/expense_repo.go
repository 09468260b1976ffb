package repository

import (
	"context"

	"gorm.io/gorm"

	"expensio/backend/internal/model"
)

// ExpenseRepository 报销单数据访问接口
type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	GetByID(ctx context.Context, id string) (*model.Expense, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]model.Expense, error)
	ListByCompany(ctx context.Context, companyID string) ([]model.Expense, error)
	ListTeam(ctx context.Context, managerID string) ([]model.Expense, error)
	// UpdateStatusIfPending 条件更新：仅当报销单仍为 Pending 时写入新状态，
	// 返回是否命中。终态不可回退，重复评估天然为 no-op
	UpdateStatusIfPending(ctx context.Context, expenseID string, status model.Status) (bool, error)
	// UpdateStatus 管理员覆写专用，无条件写入
	UpdateStatus(ctx context.Context, expenseID string, status model.Status) error
}

// expenseRepo ExpenseRepository 的 GORM 实现
type expenseRepo struct {
	db *gorm.DB
}

// NewExpenseRepo 创建 ExpenseRepository 实例
func NewExpenseRepo(db *gorm.DB) ExpenseRepository {
	return &expenseRepo{db: db}
}

func (r *expenseRepo) Create(ctx context.Context, expense *model.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *expenseRepo) GetByID(ctx context.Context, id string) (*model.Expense, error) {
	var expense model.Expense
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("expense_id = ?", id).
		First(&expense).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepo) ListByEmployee(ctx context.Context, employeeID string) ([]model.Expense, error) {
	var expenses []model.Expense
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *expenseRepo) ListByCompany(ctx context.Context, companyID string) ([]model.Expense, error) {
	var expenses []model.Expense
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// ListTeam 经理视角：直属下属的报销单，或经理持有审批记录的报销单
func (r *expenseRepo) ListTeam(ctx context.Context, managerID string) ([]model.Expense, error) {
	var expenses []model.Expense
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Distinct("expenses.*").
		Joins("JOIN users ON users.user_id = expenses.employee_id").
		Joins("LEFT JOIN approval_records ON approval_records.expense_id = expenses.expense_id").
		Where("users.manager_id = ? OR approval_records.approver_id = ?", managerID, managerID).
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *expenseRepo) UpdateStatusIfPending(ctx context.Context, expenseID string, status model.Status) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Expense{}).
		Where("expense_id = ? AND status = ?", expenseID, model.StatusPending).
		Update("status", status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *expenseRepo) UpdateStatus(ctx context.Context, expenseID string, status model.Status) error {
	return r.db.WithContext(ctx).
		Model(&model.Expense{}).
		Where("expense_id = ?", expenseID).
		Update("status", status).Error
}
