package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"expensio/backend/internal/model"
)

// ApprovalRuleRepository 审批规则数据访问接口
type ApprovalRuleRepository interface {
	// GetByCompany 读取公司配置的唯一规则；未配置时返回 gorm.ErrRecordNotFound
	GetByCompany(ctx context.Context, companyID string) (*model.ApprovalRule, error)
	// Upsert 按 company_id 创建或覆盖规则（每公司至多一条）
	Upsert(ctx context.Context, rule *model.ApprovalRule) error
}

// approvalRuleRepo ApprovalRuleRepository 的 GORM 实现
type approvalRuleRepo struct {
	db *gorm.DB
}

// NewApprovalRuleRepo 创建 ApprovalRuleRepository 实例
func NewApprovalRuleRepo(db *gorm.DB) ApprovalRuleRepository {
	return &approvalRuleRepo{db: db}
}

func (r *approvalRuleRepo) GetByCompany(ctx context.Context, companyID string) (*model.ApprovalRule, error) {
	var rule model.ApprovalRule
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *approvalRuleRepo) Upsert(ctx context.Context, rule *model.ApprovalRule) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "company_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"rule_type", "is_manager_first", "approvers",
				"threshold_percentage", "specific_approver_id", "description", "updated_at",
			}),
		}).
		Create(rule).Error
}
