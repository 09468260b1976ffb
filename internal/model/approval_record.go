package model

import "time"

// NotificationSequence 通知型记录的序号
// 提交时为管理员（及链外经理）额外创建的知会记录，序号固定为 0，
// 不参与规则评估，也不参与顺序审批的前置校验
const NotificationSequence = 0

// ApprovalRecord 审批记录表 — 对应 approval_records
// 一条记录代表一位审批人对一张报销单的一票；提交时批量生成，
// 由持有人一次性从 Pending 流转到 Approved/Rejected，之后不可重开
type ApprovalRecord struct {
	ApprovalID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"approval_id"`
	ExpenseID     string     `gorm:"type:uuid;not null;index"                       json:"expense_id"`
	ApproverID    string     `gorm:"type:uuid;not null;index"                       json:"approver_id"`
	SequenceOrder int        `gorm:"not null"                                       json:"sequence_order"`
	Status        Status     `gorm:"type:varchar(20);not null;default:'Pending'"    json:"status"`
	Comments      string     `gorm:"type:text"                                      json:"comments,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	BaseModel

	// 关联
	Approver *User    `gorm:"foreignKey:ApproverID;references:UserID"   json:"approver,omitempty"`
	Expense  *Expense `gorm:"foreignKey:ExpenseID;references:ExpenseID" json:"expense,omitempty"`
}

// TableName 指定表名
func (ApprovalRecord) TableName() string { return "approval_records" }

// IsNotification 是否为通知型记录（不计入规则评估）
func (r *ApprovalRecord) IsNotification() bool {
	return r.SequenceOrder == NotificationSequence
}
