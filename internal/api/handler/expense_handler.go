package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"expensio/backend/internal/dto"
	"expensio/backend/internal/service"
	"expensio/backend/pkg/response"
)

// ExpenseHandler 报销模块 HTTP 处理器
type ExpenseHandler struct {
	expenseSvc service.ExpenseService
}

// NewExpenseHandler 创建 ExpenseHandler
func NewExpenseHandler(expenseSvc service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseSvc: expenseSvc}
}

// Submit 提交报销
// POST /api/v1/expenses
func (h *ExpenseHandler) Submit(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	var req dto.SubmitExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.expenseSvc.Submit(c.Request.Context(), userID, companyID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			response.BadRequest(c, 13001, "报销金额必须大于 0")
		case errors.Is(err, service.ErrInvalidExpenseDate):
			response.BadRequest(c, 13002, "报销日期格式无效")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// ListMine 我的报销单
// GET /api/v1/expenses/mine
func (h *ExpenseHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.expenseSvc.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, list)
}

// ListTeam 团队报销单（经理视角）
// GET /api/v1/expenses/team
func (h *ExpenseHandler) ListTeam(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.expenseSvc.ListTeam(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, list)
}

// ListCompany 公司全量报销单（管理员视角）
// GET /api/v1/expenses
func (h *ExpenseHandler) ListCompany(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	list, err := h.expenseSvc.ListCompany(c.Request.Context(), companyID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, list)
}

// Override 管理员覆写报销单状态
// PATCH /api/v1/expenses/:id/status
func (h *ExpenseHandler) Override(c *gin.Context) {
	var req dto.OverrideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.expenseSvc.Override(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		switch {
		case errors.Is(err, service.ErrExpenseNotFound):
			response.NotFound(c, 13003, "报销单不存在")
		case errors.Is(err, service.ErrInvalidStatus):
			response.BadRequest(c, 13004, "状态取值无效")
		case errors.Is(err, service.ErrStatusTerminal):
			response.Conflict(c, 13005, "报销单已终结，不可回退为 Pending")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}
