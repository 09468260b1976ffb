package model

// RuleType 公司级审批规则类型
type RuleType string

const (
	RuleSequential       RuleType = "Sequential"
	RulePercentage       RuleType = "Percentage"
	RuleSpecificApprover RuleType = "SpecificApprover"
	RuleHybrid           RuleType = "Hybrid"
)

// Valid 校验规则类型取值
func (t RuleType) Valid() bool {
	switch t {
	case RuleSequential, RulePercentage, RuleSpecificApprover, RuleHybrid:
		return true
	}
	return false
}

// ApprovalRule 审批规则表 — 对应 approval_rules（每公司至多一条）
// Approvers 为配置的审批人池（不含动态的经理席位），顺序即审批顺序
type ApprovalRule struct {
	RuleID              string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"rule_id"`
	CompanyID           string    `gorm:"type:uuid;not null;uniqueIndex"                 json:"company_id"`
	RuleType            RuleType  `gorm:"type:varchar(30);not null"                      json:"rule_type"`
	IsManagerFirst      bool      `gorm:"not null;default:false"                         json:"is_manager_first"`
	Approvers           UUIDArray `gorm:"type:uuid[];not null;default:'{}'"              json:"approvers"`
	ThresholdPercentage *int      `json:"threshold_percentage,omitempty"`
	SpecificApproverID  *string   `gorm:"type:uuid"                                      json:"specific_approver_id,omitempty"`
	Description         string    `gorm:"type:text"                                      json:"description,omitempty"`
	BaseModel
}

// TableName 指定表名
func (ApprovalRule) TableName() string { return "approval_rules" }
