package dto

import "github.com/shopspring/decimal"

// ── 审批模块请求 ──

// DecideRequest 审批决定请求：Status 只接受 Approved / Rejected
type DecideRequest struct {
	Status   string `json:"status" binding:"required"`
	Comments string `json:"comments"`
}

// ── 审批模块响应 ──

// PendingApprovalResponse 待我审批列表项
type PendingApprovalResponse struct {
	ApprovalID       string          `json:"approval_id"`
	ExpenseID        string          `json:"expense_id"`
	SequenceOrder    int             `json:"sequence_order"`
	Amount           decimal.Decimal `json:"amount"`
	OriginalCurrency string          `json:"original_currency"`
	CompanyCurrency  string          `json:"company_currency"`
	ConvertedAmount  decimal.Decimal `json:"converted_amount"`
	Description      string          `json:"description"`
	EmployeeID       string          `json:"employee_id"`
	EmployeeEmail    string          `json:"employee_email"`
	ExpenseDate      string          `json:"expense_date"`
}

// ApprovalRecordResponse 审批记录响应（报销单审批轨迹）
type ApprovalRecordResponse struct {
	ApprovalID    string `json:"approval_id"`
	ExpenseID     string `json:"expense_id"`
	ApproverID    string `json:"approver_id"`
	ApproverEmail string `json:"approver_email,omitempty"`
	SequenceOrder int    `json:"sequence_order"`
	Status        string `json:"status"`
	Comments      string `json:"comments,omitempty"`
	ApprovedAt    string `json:"approved_at,omitempty"`
}

// DecideResponse 审批决定响应：返回报销单评估后的最新状态
type DecideResponse struct {
	ExpenseID     string `json:"expense_id"`
	ExpenseStatus string `json:"expense_status"`
}
