package model

// Company 公司表 — 对应 companies
// Currency 为公司本位币，报销金额统一折算为该币种
type Company struct {
	CompanyID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"company_id"`
	Name      string `gorm:"type:varchar(200);not null"                     json:"name"`
	Country   string `gorm:"type:varchar(100)"                              json:"country"`
	Currency  string `gorm:"type:varchar(3);not null"                       json:"currency"`
	BaseModel
}

// TableName 指定表名
func (Company) TableName() string { return "companies" }
