package dto

// ── 用户模块请求 ──

// CreateUserRequest 管理员创建员工/经理请求
type CreateUserRequest struct {
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=8"`
	Role      string  `json:"role" binding:"required"`
	ManagerID *string `json:"manager_id"`
}

// UpdateUserRequest 管理员调整角色/直属经理请求（nil 字段不更新）
type UpdateUserRequest struct {
	Role      *string `json:"role"`
	ManagerID *string `json:"manager_id"`
}

// ── 用户模块响应 ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	CompanyID string  `json:"company_id"`
	ManagerID *string `json:"manager_id,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}
