package dto

import "github.com/shopspring/decimal"

// ── 报销模块请求 ──

// SubmitExpenseRequest 提交报销请求
// ExpenseDate 格式 2006-01-02
type SubmitExpenseRequest struct {
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	OriginalCurrency string          `json:"original_currency" binding:"required,len=3"`
	Category         string          `json:"category"`
	Description      string          `json:"description" binding:"required"`
	ExpenseDate      string          `json:"expense_date" binding:"required"`
}

// OverrideStatusRequest 管理员覆写报销单状态请求
type OverrideStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ── 报销模块响应 ──

// ExpenseResponse 报销单信息响应
// ConvertedAmount 为折算到公司本位币后的展示金额（转换失败时回退为 Amount）
type ExpenseResponse struct {
	ID               string          `json:"id"`
	EmployeeID       string          `json:"employee_id"`
	EmployeeEmail    string          `json:"employee_email,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	OriginalCurrency string          `json:"original_currency"`
	CompanyCurrency  string          `json:"company_currency,omitempty"`
	ConvertedAmount  decimal.Decimal `json:"converted_amount"`
	Category         string          `json:"category,omitempty"`
	Description      string          `json:"description"`
	ExpenseDate      string          `json:"expense_date"`
	Status           string          `json:"status"`
	CreatedAt        string          `json:"created_at"`
}
