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
)

// ── 报销模块业务错误 ──

var (
	ErrExpenseNotFound    = errors.New("报销单不存在")
	ErrInvalidExpenseDate = errors.New("报销日期格式无效，应为 2006-01-02")
	ErrInvalidAmount      = errors.New("报销金额必须大于 0")
	ErrInvalidStatus      = errors.New("状态取值无效")
	ErrStatusTerminal     = errors.New("报销单已终结，不可回退为 Pending")
)

// ExpenseService 报销单业务接口
type ExpenseService interface {
	Submit(ctx context.Context, employeeID, companyID string, req *dto.SubmitExpenseRequest) (*dto.ExpenseResponse, error)
	ListMine(ctx context.Context, employeeID string) ([]dto.ExpenseResponse, error)
	ListTeam(ctx context.Context, managerID string) ([]dto.ExpenseResponse, error)
	ListCompany(ctx context.Context, companyID string) ([]dto.ExpenseResponse, error)
	// Override 管理员覆写报销单状态；终态不可回退为 Pending
	Override(ctx context.Context, expenseID string, status string) error
}

type expenseService struct {
	repo      *repository.Repository
	approval  ApprovalService
	converter currency.Converter
	logger    *zap.Logger
}

// NewExpenseService 创建 ExpenseService 实例
func NewExpenseService(
	repo *repository.Repository,
	approval ApprovalService,
	converter currency.Converter,
	logger *zap.Logger,
) ExpenseService {
	return &expenseService{
		repo:      repo,
		approval:  approval,
		converter: converter,
		logger:    logger,
	}
}

// ────────────────────── Submit ──────────────────────

// Submit 提交报销：折算本位币金额 → 落库 → 物化审批链 → 创建知会记录。
// 汇率转换失败只回退为原金额，绝不阻断提交
func (s *expenseService) Submit(ctx context.Context, employeeID, companyID string, req *dto.SubmitExpenseRequest) (*dto.ExpenseResponse, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	expenseDate, err := time.Parse("2006-01-02", req.ExpenseDate)
	if err != nil {
		return nil, ErrInvalidExpenseDate
	}

	company, err := s.repo.Company.GetByID(ctx, companyID)
	if err != nil {
		s.logger.Error("查询公司失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, err
	}

	amount, err := s.converter.Convert(ctx, req.Amount, req.OriginalCurrency, company.Currency)
	if err != nil {
		s.logger.Warn("提交时汇率转换失败，按原金额入账",
			zap.String("from", req.OriginalCurrency),
			zap.String("to", company.Currency),
			zap.Error(err),
		)
		amount = req.Amount
	}

	expense := &model.Expense{
		EmployeeID:       employeeID,
		CompanyID:        companyID,
		Amount:           amount,
		OriginalAmount:   req.Amount,
		OriginalCurrency: req.OriginalCurrency,
		Category:         req.Category,
		Description:      req.Description,
		ExpenseDate:      expenseDate,
		Status:           model.StatusPending,
	}

	if err := s.repo.Expense.Create(ctx, expense); err != nil {
		s.logger.Error("创建报销单失败", zap.Error(err))
		return nil, err
	}

	chain, err := s.approval.BuildChain(ctx, expense.ExpenseID, companyID, employeeID)
	if err != nil {
		return nil, err
	}

	if err := s.approval.CreateNotifications(ctx, expense.ExpenseID, companyID, employeeID, chain); err != nil {
		return nil, err
	}

	resp := s.toExpenseResponse(expense, company.Currency, expense.Amount)
	return &resp, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *expenseService) ListMine(ctx context.Context, employeeID string) ([]dto.ExpenseResponse, error) {
	expenses, err := s.repo.Expense.ListByEmployee(ctx, employeeID)
	if err != nil {
		s.logger.Error("查询我的报销单失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	return s.toResponsesWithConversion(ctx, expenses)
}

// ListTeam 经理视角：直属下属或自己参与审批的报销单
func (s *expenseService) ListTeam(ctx context.Context, managerID string) ([]dto.ExpenseResponse, error) {
	expenses, err := s.repo.Expense.ListTeam(ctx, managerID)
	if err != nil {
		s.logger.Error("查询团队报销单失败", zap.String("manager_id", managerID), zap.Error(err))
		return nil, err
	}
	return s.toResponsesWithConversion(ctx, expenses)
}

func (s *expenseService) ListCompany(ctx context.Context, companyID string) ([]dto.ExpenseResponse, error) {
	expenses, err := s.repo.Expense.ListByCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("查询公司报销单失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, err
	}
	return s.toResponsesWithConversion(ctx, expenses)
}

// ────────────────────── Override ──────────────────────

func (s *expenseService) Override(ctx context.Context, expenseID string, status string) error {
	target := model.Status(status)
	if !target.Valid() {
		return ErrInvalidStatus
	}

	expense, err := s.repo.Expense.GetByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExpenseNotFound
		}
		s.logger.Error("查询报销单失败", zap.String("expense_id", expenseID), zap.Error(err))
		return err
	}

	// 终态不可回退为 Pending；管理员可在终态间纠偏
	if target == model.StatusPending && expense.Status.IsTerminal() {
		return ErrStatusTerminal
	}

	if err := s.repo.Expense.UpdateStatus(ctx, expenseID, target); err != nil {
		s.logger.Error("覆写报销单状态失败", zap.String("expense_id", expenseID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *expenseService) toResponsesWithConversion(ctx context.Context, expenses []model.Expense) ([]dto.ExpenseResponse, error) {
	companyCurrencies := make(map[string]string)
	result := make([]dto.ExpenseResponse, 0, len(expenses))

	for i := range expenses {
		exp := &expenses[i]

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

		converted, err := s.converter.Convert(ctx, exp.OriginalAmount, exp.OriginalCurrency, cur)
		if err != nil {
			// 展示转换失败回退已入账金额
			converted = exp.Amount
		}

		result = append(result, s.toExpenseResponse(exp, cur, converted))
	}
	return result, nil
}

func (s *expenseService) toExpenseResponse(exp *model.Expense, companyCurrency string, converted decimal.Decimal) dto.ExpenseResponse {
	resp := dto.ExpenseResponse{
		ID:               exp.ExpenseID,
		EmployeeID:       exp.EmployeeID,
		Amount:           exp.Amount,
		OriginalAmount:   exp.OriginalAmount,
		OriginalCurrency: exp.OriginalCurrency,
		CompanyCurrency:  companyCurrency,
		ConvertedAmount:  converted,
		Category:         exp.Category,
		Description:      exp.Description,
		ExpenseDate:      exp.ExpenseDate.Format("2006-01-02"),
		Status:           string(exp.Status),
		CreatedAt:        exp.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if exp.Employee != nil {
		resp.EmployeeEmail = exp.Employee.Email
	}
	return resp
}
