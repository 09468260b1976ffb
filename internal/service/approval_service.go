package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"expensio/backend/internal/dto"
	"expensio/backend/internal/model"
	"expensio/backend/internal/repository"
	"expensio/backend/pkg/currency"
	apperrors "expensio/backend/pkg/errors"
)

// ── 审批模块业务错误 ──

var (
	ErrApprovalNotFound     = errors.New("审批记录不存在")
	ErrNotRecordOwner       = errors.New("无权处理该审批记录")
	ErrRecordAlreadyDecided = errors.New("审批记录已处理，不可重复操作")
	ErrPreviousStepsPending = errors.New("前序审批步骤尚未完成")
	ErrInvalidDecision      = errors.New("审批决定只能为 Approved 或 Rejected")
)

// ApprovalService 审批链业务接口
//
// 设计说明：
//   - BuildChain / CreateNotifications 在报销提交时由 ExpenseService 调用
//   - Decide 是审批人唯一的写入口：鉴权 → 顺序校验 → 落决定 → 重新评估整条链
//   - 评估函数 evaluateOutcome 是纯函数，只依赖当前记录集与规则快照
type ApprovalService interface {
	BuildChain(ctx context.Context, expenseID, companyID, employeeID string) ([]model.ApprovalRecord, error)
	CreateNotifications(ctx context.Context, expenseID, companyID, employeeID string, chain []model.ApprovalRecord) error
	Decide(ctx context.Context, approvalID, approverID, approverRole string, req *dto.DecideRequest) (*dto.DecideResponse, error)
	ListPending(ctx context.Context, approverID string) ([]dto.PendingApprovalResponse, error)
	ListTrail(ctx context.Context, expenseID string) ([]dto.ApprovalRecordResponse, error)
}

type approvalService struct {
	repo      *repository.Repository
	converter currency.Converter
	expenseMu *keyedMutex
	logger    *zap.Logger
}

// NewApprovalService 创建 ApprovalService 实例
func NewApprovalService(repo *repository.Repository, converter currency.Converter, logger *zap.Logger) ApprovalService {
	return &approvalService{
		repo:      repo,
		converter: converter,
		expenseMu: newKeyedMutex(),
		logger:    logger,
	}
}

// ────────────────────── BuildChain ──────────────────────

// BuildChain 根据公司规则物化审批链：
// 经理优先席位（若启用且员工有直属经理）→ 配置的审批人池（按配置顺序），
// 按审批人去重，序号从 1 递增。未配置规则时不产生任何记录。
func (s *approvalService) BuildChain(ctx context.Context, expenseID, companyID, employeeID string) ([]model.ApprovalRecord, error) {
	rule, err := s.resolveRule(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, nil
	}

	employee, err := s.repo.User.GetByID(ctx, employeeID)
	if err != nil {
		s.logger.Error("查询提交人失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	seen := make(map[string]bool)
	var records []model.ApprovalRecord
	sequence := 1

	if rule.IsManagerFirst && employee.ManagerID != nil {
		records = append(records, model.ApprovalRecord{
			ExpenseID:     expenseID,
			ApproverID:    *employee.ManagerID,
			SequenceOrder: sequence,
			Status:        model.StatusPending,
		})
		seen[*employee.ManagerID] = true
		sequence++
	}

	for _, approverID := range rule.Approvers {
		if seen[approverID] {
			continue
		}
		records = append(records, model.ApprovalRecord{
			ExpenseID:     expenseID,
			ApproverID:    approverID,
			SequenceOrder: sequence,
			Status:        model.StatusPending,
		})
		seen[approverID] = true
		sequence++
	}

	if err := s.repo.ApprovalRecord.BatchCreate(ctx, records); err != nil {
		s.logger.Error("创建审批链失败", zap.String("expense_id", expenseID), zap.Error(err))
		return nil, err
	}

	return records, nil
}

// ────────────────────── CreateNotifications ──────────────────────

// CreateNotifications 为公司管理员及员工直属经理创建序号 0 的知会记录。
// 已持有规则链记录的用户跳过，保证每人每单至多一条记录。
func (s *approvalService) CreateNotifications(ctx context.Context, expenseID, companyID, employeeID string, chain []model.ApprovalRecord) error {
	inChain := make(map[string]bool, len(chain))
	for _, r := range chain {
		inChain[r.ApproverID] = true
	}
	inChain[employeeID] = true // 提交人不给自己发知会

	var watchers []string

	admins, err := s.repo.User.ListByCompanyAndRole(ctx, companyID, model.RoleAdmin)
	if err != nil {
		s.logger.Error("查询公司管理员失败", zap.String("company_id", companyID), zap.Error(err))
		return err
	}
	for _, admin := range admins {
		if !inChain[admin.UserID] {
			watchers = append(watchers, admin.UserID)
			inChain[admin.UserID] = true
		}
	}

	employee, err := s.repo.User.GetByID(ctx, employeeID)
	if err != nil {
		s.logger.Error("查询提交人失败", zap.String("employee_id", employeeID), zap.Error(err))
		return err
	}
	if employee.ManagerID != nil && !inChain[*employee.ManagerID] {
		watchers = append(watchers, *employee.ManagerID)
	}

	records := make([]model.ApprovalRecord, 0, len(watchers))
	for _, id := range watchers {
		records = append(records, model.ApprovalRecord{
			ExpenseID:     expenseID,
			ApproverID:    id,
			SequenceOrder: model.NotificationSequence,
			Status:        model.StatusPending,
		})
	}

	if err := s.repo.ApprovalRecord.BatchCreate(ctx, records); err != nil {
		s.logger.Error("创建知会记录失败", zap.String("expense_id", expenseID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Decide ──────────────────────

// Decide 审批人对自己的记录落一票，并触发整条链的重新评估。
// 同一报销单的「落决定 → 评估 → 写状态」全程持有按报销单粒度的互斥锁。
func (s *approvalService) Decide(ctx context.Context, approvalID, approverID, approverRole string, req *dto.DecideRequest) (*dto.DecideResponse, error) {
	decision := model.Status(req.Status)
	if decision != model.StatusApproved && decision != model.StatusRejected {
		return nil, ErrInvalidDecision
	}

	record, err := s.repo.ApprovalRecord.GetByID(ctx, approvalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApprovalNotFound
		}
		s.logger.Error("查询审批记录失败", zap.String("approval_id", approvalID), zap.Error(err))
		return nil, err
	}

	if record.ApproverID != approverID {
		return nil, ErrNotRecordOwner
	}
	if record.Status != model.StatusPending {
		return nil, ErrRecordAlreadyDecided
	}

	expense, err := s.repo.Expense.GetByID(ctx, record.ExpenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}
		s.logger.Error("查询报销单失败", zap.String("expense_id", record.ExpenseID), zap.Error(err))
		return nil, err
	}

	unlock := s.expenseMu.Lock(record.ExpenseID)
	defer unlock()

	rule, err := s.resolveRule(ctx, expense.CompanyID)
	if err != nil {
		return nil, err
	}

	// 顺序审批门禁：仅 Sequential 语义（含未配置规则的默认语义）要求
	// 前序规则链记录全部出结果后才允许落票；知会记录不受门禁约束
	if !record.IsNotification() && sequentialGateApplies(rule) {
		earlier, err := s.repo.ApprovalRecord.CountEarlierPending(ctx, record.ExpenseID, record.SequenceOrder)
		if err != nil {
			s.logger.Error("查询前序审批失败", zap.String("approval_id", approvalID), zap.Error(err))
			return nil, err
		}
		if earlier > 0 {
			return nil, ErrPreviousStepsPending
		}
	}

	if err := s.repo.ApprovalRecord.UpdateDecision(ctx, approvalID, decision, req.Comments, time.Now()); err != nil {
		// 条件更新未命中：另一实例已抢先落票
		if errors.Is(err, apperrors.ErrStatusConflict) {
			return nil, ErrRecordAlreadyDecided
		}
		s.logger.Error("写入审批决定失败", zap.String("approval_id", approvalID), zap.Error(err))
		return nil, err
	}

	status, err := s.evaluate(ctx, record.ExpenseID, rule, approverRole, decision)
	if err != nil {
		return nil, err
	}

	return &dto.DecideResponse{
		ExpenseID:     record.ExpenseID,
		ExpenseStatus: string(status),
	}, nil
}

// sequentialGateApplies 未配置规则时默认按 Sequential 语义执行门禁
func sequentialGateApplies(rule *model.ApprovalRule) bool {
	return rule == nil || rule.RuleType == model.RuleSequential
}

// ────────────────────── 评估引擎 ──────────────────────

// evaluate 读取报销单全部规则链记录，决定并提交新状态。
// 写入为条件更新（仅 Pending 可流转），重复评估与并发评估均为 no-op。
func (s *approvalService) evaluate(ctx context.Context, expenseID string, rule *model.ApprovalRule, actorRole string, decision model.Status) (model.Status, error) {
	// 管理员短路径：管理员批准直接终结报销单，
	// 并将其余 Manager 角色持有的 Pending 记录一并置为 Approved
	if actorRole == model.RoleAdmin && decision == model.StatusApproved {
		if _, err := s.repo.Expense.UpdateStatusIfPending(ctx, expenseID, model.StatusApproved); err != nil {
			s.logger.Error("提交报销单状态失败", zap.String("expense_id", expenseID), zap.Error(err))
			return "", err
		}
		if err := s.repo.ApprovalRecord.ForceApproveManagerPending(ctx, expenseID); err != nil {
			s.logger.Error("批量批准经理审批失败", zap.String("expense_id", expenseID), zap.Error(err))
			return "", err
		}
		return model.StatusApproved, nil
	}

	all, err := s.repo.ApprovalRecord.ListByExpense(ctx, expenseID)
	if err != nil {
		s.logger.Error("查询审批记录失败", zap.String("expense_id", expenseID), zap.Error(err))
		return "", err
	}

	outcome := evaluateOutcome(ruleChainOf(all), rule)
	if !outcome.IsTerminal() {
		return model.StatusPending, nil
	}

	if _, err := s.repo.Expense.UpdateStatusIfPending(ctx, expenseID, outcome); err != nil {
		s.logger.Error("提交报销单状态失败", zap.String("expense_id", expenseID), zap.Error(err))
		return "", err
	}
	return outcome, nil
}

// ruleChainOf 过滤出参与规则评估的记录（序号 0 的知会记录除外）
func ruleChainOf(records []model.ApprovalRecord) []model.ApprovalRecord {
	chain := make([]model.ApprovalRecord, 0, len(records))
	for _, r := range records {
		if !r.IsNotification() {
			chain = append(chain, r)
		}
	}
	return chain
}

// evaluateOutcome 审批结果评估：当前记录集 + 规则快照 → 报销单新状态。
// 纯函数，幂等；先判定批准条件，批准条件不满足时一票否决才生效，
// 因此 Percentage/Hybrid 下多数票批准可以压过个别否决。
func evaluateOutcome(records []model.ApprovalRecord, rule *model.ApprovalRule) model.Status {
	if len(records) == 0 {
		// 空链无从评估，报销单停留在 Pending，由管理员覆写兜底
		return model.StatusPending
	}

	rejected := 0
	for _, r := range records {
		if r.Status == model.StatusRejected {
			rejected++
		}
	}

	if shouldApprove(records, rule) {
		return model.StatusApproved
	}
	if rejected > 0 {
		return model.StatusRejected
	}
	return model.StatusPending
}

// shouldApprove 按规则类型判定批准条件
// 配置缺失（如 Percentage 无阈值）按「不可批准」防御处理，不在评估期报错
func shouldApprove(records []model.ApprovalRecord, rule *model.ApprovalRule) bool {
	if rule == nil {
		// 未配置规则：退化为全员通过语义
		return allApproved(records)
	}

	switch rule.RuleType {
	case model.RuleSequential:
		return allApproved(records)
	case model.RulePercentage:
		return percentageMet(records, rule.ThresholdPercentage)
	case model.RuleSpecificApprover:
		return specificApproved(records, rule.SpecificApproverID)
	case model.RuleHybrid:
		// Hybrid 取 AND：百分比阈值与指定审批人须同时满足
		return percentageMet(records, rule.ThresholdPercentage) &&
			specificApproved(records, rule.SpecificApproverID)
	}
	return false
}

func allApproved(records []model.ApprovalRecord) bool {
	for _, r := range records {
		if r.Status != model.StatusApproved {
			return false
		}
	}
	return true
}

// percentageMet A/N*100 >= T，整数比较避免浮点误差；N=0 恒为 false
func percentageMet(records []model.ApprovalRecord, threshold *int) bool {
	if threshold == nil || len(records) == 0 {
		return false
	}
	approved := 0
	for _, r := range records {
		if r.Status == model.StatusApproved {
			approved++
		}
	}
	return approved*100 >= *threshold*len(records)
}

func specificApproved(records []model.ApprovalRecord, approverID *string) bool {
	if approverID == nil {
		return false
	}
	for _, r := range records {
		if r.ApproverID == *approverID && r.Status == model.StatusApproved {
			return true
		}
	}
	return false
}

// ────────────────────── ListPending ──────────────────────

// ListPending 审批人的待办列表，金额折算为公司本位币展示（失败回退原金额）
func (s *approvalService) ListPending(ctx context.Context, approverID string) ([]dto.PendingApprovalResponse, error) {
	records, err := s.repo.ApprovalRecord.ListPendingByApprover(ctx, approverID)
	if err != nil {
		s.logger.Error("查询待办审批失败", zap.String("approver_id", approverID), zap.Error(err))
		return nil, err
	}

	companyCurrencies := make(map[string]string)
	result := make([]dto.PendingApprovalResponse, 0, len(records))

	for i := range records {
		r := &records[i]
		if r.Expense == nil {
			continue
		}
		exp := r.Expense

		cur, ok := companyCurrencies[exp.CompanyID]
		if !ok {
			company, err := s.repo.Company.GetByID(ctx, exp.CompanyID)
			if err != nil {
				s.logger.Error("查询公司失败", zap.String("company_id", exp.CompanyID), zap.Error(err))
				return nil, err
			}
			cur = company.Currency
			companyCurrencies[exp.CompanyID] = cur
		}

		item := dto.PendingApprovalResponse{
			ApprovalID:       r.ApprovalID,
			ExpenseID:        exp.ExpenseID,
			SequenceOrder:    r.SequenceOrder,
			Amount:           exp.Amount,
			OriginalCurrency: exp.OriginalCurrency,
			CompanyCurrency:  cur,
			ConvertedAmount:  s.displayAmount(ctx, exp, cur),
			Description:      exp.Description,
			EmployeeID:       exp.EmployeeID,
			ExpenseDate:      exp.ExpenseDate.Format("2006-01-02"),
		}
		if exp.Employee != nil {
			item.EmployeeEmail = exp.Employee.Email
		}
		result = append(result, item)
	}

	return result, nil
}

// displayAmount 展示用折算金额：转换失败时回退为已入账金额，绝不中断列表
func (s *approvalService) displayAmount(ctx context.Context, exp *model.Expense, companyCurrency string) decimal.Decimal {
	converted, err := s.converter.Convert(ctx, exp.OriginalAmount, exp.OriginalCurrency, companyCurrency)
	if err != nil {
		s.logger.Warn("汇率转换失败，回退原金额",
			zap.String("expense_id", exp.ExpenseID),
			zap.String("from", exp.OriginalCurrency),
			zap.String("to", companyCurrency),
			zap.Error(err),
		)
		return exp.Amount
	}
	return converted
}

// ────────────────────── ListTrail ──────────────────────

// ListTrail 报销单的完整审批轨迹（含知会记录，按序号排列）
func (s *approvalService) ListTrail(ctx context.Context, expenseID string) ([]dto.ApprovalRecordResponse, error) {
	records, err := s.repo.ApprovalRecord.ListByExpense(ctx, expenseID)
	if err != nil {
		s.logger.Error("查询审批轨迹失败", zap.String("expense_id", expenseID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ApprovalRecordResponse, 0, len(records))
	for i := range records {
		r := &records[i]
		item := dto.ApprovalRecordResponse{
			ApprovalID:    r.ApprovalID,
			ExpenseID:     r.ExpenseID,
			ApproverID:    r.ApproverID,
			SequenceOrder: r.SequenceOrder,
			Status:        string(r.Status),
			Comments:      r.Comments,
		}
		if r.Approver != nil {
			item.ApproverEmail = r.Approver.Email
		}
		if r.ApprovedAt != nil {
			item.ApprovedAt = r.ApprovedAt.Format("2006-01-02T15:04:05Z")
		}
		result = append(result, item)
	}
	return result, nil
}

// ── 内部辅助方法 ──

// resolveRule 读取公司规则快照；未配置返回 (nil, nil)
func (s *approvalService) resolveRule(ctx context.Context, companyID string) (*model.ApprovalRule, error) {
	rule, err := s.repo.ApprovalRule.GetByCompany(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询审批规则失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, err
	}
	return rule, nil
}
