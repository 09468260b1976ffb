package model

// User 用户表 — 对应 users
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string  `gorm:"type:varchar(20);not null"                      json:"role"`
	CompanyID    string  `gorm:"type:uuid;not null"                             json:"company_id"`
	ManagerID    *string `gorm:"type:uuid"                                      json:"manager_id,omitempty"`
	BaseModel

	// 关联
	Company *Company `gorm:"foreignKey:CompanyID;references:CompanyID" json:"company,omitempty"`
	Manager *User    `gorm:"foreignKey:ManagerID;references:UserID"    json:"manager,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
