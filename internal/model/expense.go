package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense 报销单表 — 对应 expenses
// Amount 为折算到公司本位币后的金额；OriginalAmount/OriginalCurrency 保留提交时原值
// Status 只能由审批评估引擎或管理员覆写变更，终态后不再流转
type Expense struct {
	ExpenseID        string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"expense_id"`
	EmployeeID       string          `gorm:"type:uuid;not null;index"                       json:"employee_id"`
	CompanyID        string          `gorm:"type:uuid;not null;index"                       json:"company_id"`
	Amount           decimal.Decimal `gorm:"type:numeric(18,2);not null"                    json:"amount"`
	OriginalAmount   decimal.Decimal `gorm:"type:numeric(18,2);not null"                    json:"original_amount"`
	OriginalCurrency string          `gorm:"type:varchar(3);not null"                       json:"original_currency"`
	Category         string          `gorm:"type:varchar(100)"                              json:"category"`
	Description      string          `gorm:"type:text;not null"                             json:"description"`
	ExpenseDate      time.Time       `gorm:"type:date;not null"                             json:"expense_date"`
	Status           Status          `gorm:"type:varchar(20);not null;default:'Pending'"    json:"status"`
	BaseModel

	// 关联
	Employee *User `gorm:"foreignKey:EmployeeID;references:UserID" json:"employee,omitempty"`
}

// TableName 指定表名
func (Expense) TableName() string { return "expenses" }
