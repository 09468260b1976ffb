package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"expensio/backend/internal/dto"
	"expensio/backend/internal/service"
	"expensio/backend/pkg/response"
)

// UserHandler 用户管理模块 HTTP 处理器（管理员专用）
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// Create 创建员工/经理账号
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.userSvc.Create(c.Request.Context(), companyID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRole):
			response.BadRequest(c, 12001, "角色取值无效")
		case errors.Is(err, service.ErrEmailTaken):
			response.Conflict(c, 11002, "该邮箱已被注册")
		case errors.Is(err, service.ErrManagerNotFound):
			response.BadRequest(c, 12002, "指定的经理不存在或不属于本公司")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// List 公司用户列表（分页）
// GET /api/v1/users?page=1&page_size=20
func (h *UserHandler) List(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	list, total, err := h.userSvc.List(c.Request.Context(), companyID, page, pageSize)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, page, pageSize)
}

// Update 调整角色/直属经理
// PATCH /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.userSvc.Update(c.Request.Context(), companyID, c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 12003, "用户不存在")
		case errors.Is(err, service.ErrInvalidRole):
			response.BadRequest(c, 12001, "角色取值无效")
		case errors.Is(err, service.ErrManagerNotFound):
			response.BadRequest(c, 12002, "指定的经理不存在或不属于本公司")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}
