package dto

// ── 审批规则模块 DTO ──

// UpsertApprovalRuleRequest 创建/更新公司审批规则请求（每公司至多一条）
type UpsertApprovalRuleRequest struct {
	RuleType            string   `json:"rule_type" binding:"required"`
	IsManagerFirst      bool     `json:"is_manager_first"`
	Approvers           []string `json:"approvers"`
	ThresholdPercentage *int     `json:"threshold_percentage"`
	SpecificApproverID  *string  `json:"specific_approver_id"`
	Description         string   `json:"description"`
}

// ApprovalRuleResponse 审批规则信息响应
type ApprovalRuleResponse struct {
	ID                  string   `json:"id"`
	CompanyID           string   `json:"company_id"`
	RuleType            string   `json:"rule_type"`
	IsManagerFirst      bool     `json:"is_manager_first"`
	Approvers           []string `json:"approvers"`
	ThresholdPercentage *int     `json:"threshold_percentage,omitempty"`
	SpecificApproverID  *string  `json:"specific_approver_id,omitempty"`
	Description         string   `json:"description,omitempty"`
	UpdatedAt           string   `json:"updated_at"`
}
