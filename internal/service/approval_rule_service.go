package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"expensio/backend/internal/dto"
	"expensio/backend/internal/model"
	"expensio/backend/internal/repository"
)

// ── 审批规则模块业务错误 ──

var (
	ErrRuleNotFound         = errors.New("审批规则不存在")
	ErrInvalidRuleType      = errors.New("规则类型无效")
	ErrThresholdRequired    = errors.New("Percentage/Hybrid 规则必须配置 1-100 的阈值百分比")
	ErrSpecificIDRequired   = errors.New("SpecificApprover/Hybrid 规则必须指定审批人")
	ErrDuplicateApprovers   = errors.New("审批人池中存在重复的审批人")
)

// ApprovalRuleService 审批规则业务接口
// 规则配置错误在此处拦截；评估引擎对缺陷规则只做防御性「不可批准」处理
type ApprovalRuleService interface {
	GetByCompany(ctx context.Context, companyID string) (*dto.ApprovalRuleResponse, error)
	Upsert(ctx context.Context, companyID string, req *dto.UpsertApprovalRuleRequest) (*dto.ApprovalRuleResponse, error)
}

type approvalRuleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewApprovalRuleService 创建 ApprovalRuleService 实例
func NewApprovalRuleService(repo *repository.Repository, logger *zap.Logger) ApprovalRuleService {
	return &approvalRuleService{repo: repo, logger: logger}
}

// ────────────────────── GetByCompany ──────────────────────

func (s *approvalRuleService) GetByCompany(ctx context.Context, companyID string) (*dto.ApprovalRuleResponse, error) {
	rule, err := s.repo.ApprovalRule.GetByCompany(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		s.logger.Error("查询审批规则失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, err
	}

	return s.toRuleResponse(rule), nil
}

// ────────────────────── Upsert ──────────────────────

// Upsert 创建或覆盖公司唯一的审批规则（按 company_id upsert）
func (s *approvalRuleService) Upsert(ctx context.Context, companyID string, req *dto.UpsertApprovalRuleRequest) (*dto.ApprovalRuleResponse, error) {
	ruleType := model.RuleType(req.RuleType)
	if !ruleType.Valid() {
		return nil, ErrInvalidRuleType
	}

	// ── 配置期校验：缺陷规则不允许入库 ──
	if ruleType == model.RulePercentage || ruleType == model.RuleHybrid {
		if req.ThresholdPercentage == nil || *req.ThresholdPercentage < 1 || *req.ThresholdPercentage > 100 {
			return nil, ErrThresholdRequired
		}
	}
	if ruleType == model.RuleSpecificApprover || ruleType == model.RuleHybrid {
		if req.SpecificApproverID == nil || *req.SpecificApproverID == "" {
			return nil, ErrSpecificIDRequired
		}
	}

	seen := make(map[string]bool, len(req.Approvers))
	for _, id := range req.Approvers {
		if seen[id] {
			return nil, ErrDuplicateApprovers
		}
		seen[id] = true
	}

	rule := &model.ApprovalRule{
		CompanyID:           companyID,
		RuleType:            ruleType,
		IsManagerFirst:      req.IsManagerFirst,
		Approvers:           model.UUIDArray(req.Approvers),
		ThresholdPercentage: req.ThresholdPercentage,
		SpecificApproverID:  req.SpecificApproverID,
		Description:         req.Description,
	}

	if err := s.repo.ApprovalRule.Upsert(ctx, rule); err != nil {
		s.logger.Error("保存审批规则失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, err
	}

	// upsert 后回读，保证返回生效的持久化内容
	saved, err := s.repo.ApprovalRule.GetByCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("回读审批规则失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, err
	}

	return s.toRuleResponse(saved), nil
}

// ── 内部辅助方法 ──

func (s *approvalRuleService) toRuleResponse(rule *model.ApprovalRule) *dto.ApprovalRuleResponse {
	return &dto.ApprovalRuleResponse{
		ID:                  rule.RuleID,
		CompanyID:           rule.CompanyID,
		RuleType:            string(rule.RuleType),
		IsManagerFirst:      rule.IsManagerFirst,
		Approvers:           rule.Approvers,
		ThresholdPercentage: rule.ThresholdPercentage,
		SpecificApproverID:  rule.SpecificApproverID,
		Description:         rule.Description,
		UpdatedAt:           rule.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
