package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"expensio/backend/internal/model"
	apperrors "expensio/backend/pkg/errors"
)

// ApprovalRecordRepository 审批记录数据访问接口
type ApprovalRecordRepository interface {
	BatchCreate(ctx context.Context, records []model.ApprovalRecord) error
	GetByID(ctx context.Context, id string) (*model.ApprovalRecord, error)
	ListByExpense(ctx context.Context, expenseID string) ([]model.ApprovalRecord, error)
	ListPendingByApprover(ctx context.Context, approverID string) ([]model.ApprovalRecord, error)
	// CountEarlierPending 统计同一报销单上序号更小且仍为 Pending 的规则链记录
	// （序号 0 的通知记录不计入）
	CountEarlierPending(ctx context.Context, expenseID string, sequenceOrder int) (int64, error)
	// UpdateDecision 条件落票：仅 Pending 记录可写入；未命中返回
	// apperrors.ErrStatusConflict（跨进程并发重复落票的最终防线）
	UpdateDecision(ctx context.Context, id string, status model.Status, comments string, decidedAt time.Time) error
	// ForceApproveManagerPending 管理员短路径：将该报销单上 Manager 角色
	// 持有的 Pending 记录全部置为 Approved
	ForceApproveManagerPending(ctx context.Context, expenseID string) error
}

// approvalRecordRepo ApprovalRecordRepository 的 GORM 实现
type approvalRecordRepo struct {
	db *gorm.DB
}

// NewApprovalRecordRepo 创建 ApprovalRecordRepository 实例
func NewApprovalRecordRepo(db *gorm.DB) ApprovalRecordRepository {
	return &approvalRecordRepo{db: db}
}

func (r *approvalRecordRepo) BatchCreate(ctx context.Context, records []model.ApprovalRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

func (r *approvalRecordRepo) GetByID(ctx context.Context, id string) (*model.ApprovalRecord, error) {
	var record model.ApprovalRecord
	err := r.db.WithContext(ctx).
		Where("approval_id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *approvalRecordRepo) ListByExpense(ctx context.Context, expenseID string) ([]model.ApprovalRecord, error) {
	var records []model.ApprovalRecord
	err := r.db.WithContext(ctx).
		Preload("Approver").
		Where("expense_id = ?", expenseID).
		Order("sequence_order ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *approvalRecordRepo) ListPendingByApprover(ctx context.Context, approverID string) ([]model.ApprovalRecord, error) {
	var records []model.ApprovalRecord
	err := r.db.WithContext(ctx).
		Preload("Expense").
		Preload("Expense.Employee").
		Where("approver_id = ? AND status = ?", approverID, model.StatusPending).
		Order("sequence_order ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *approvalRecordRepo) CountEarlierPending(ctx context.Context, expenseID string, sequenceOrder int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ApprovalRecord{}).
		Where("expense_id = ? AND sequence_order > ? AND sequence_order < ? AND status = ?",
			expenseID, model.NotificationSequence, sequenceOrder, model.StatusPending).
		Count(&count).Error
	return count, err
}

func (r *approvalRecordRepo) UpdateDecision(ctx context.Context, id string, status model.Status, comments string, decidedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.ApprovalRecord{}).
		Where("approval_id = ? AND status = ?", id, model.StatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"comments":    comments,
			"approved_at": decidedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrStatusConflict
	}
	return nil
}

func (r *approvalRecordRepo) ForceApproveManagerPending(ctx context.Context, expenseID string) error {
	return r.db.WithContext(ctx).
		Model(&model.ApprovalRecord{}).
		Where("expense_id = ? AND status = ? AND approver_id IN (?)",
			expenseID, model.StatusPending,
			r.db.Model(&model.User{}).Select("user_id").Where("role = ?", model.RoleManager),
		).
		Update("status", model.StatusApproved).Error
}
