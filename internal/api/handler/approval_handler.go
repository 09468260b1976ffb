package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"expensio/backend/internal/dto"
	"expensio/backend/internal/service"
	"expensio/backend/pkg/response"
)

// ApprovalHandler 审批模块 HTTP 处理器
type ApprovalHandler struct {
	approvalSvc service.ApprovalService
}

// NewApprovalHandler 创建 ApprovalHandler
func NewApprovalHandler(approvalSvc service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalSvc: approvalSvc}
}

// ListPending 待我审批列表
// GET /api/v1/approvals/pending
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.approvalSvc.ListPending(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, list)
}

// Decide 审批决定（批准/驳回）
// POST /api/v1/approvals/:id/decision
func (h *ApprovalHandler) Decide(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.approvalSvc.Decide(c.Request.Context(), c.Param("id"), userID, role, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDecision):
			response.BadRequest(c, 14001, "审批决定只能为 Approved 或 Rejected")
		case errors.Is(err, service.ErrApprovalNotFound):
			response.NotFound(c, 14002, "审批记录不存在")
		case errors.Is(err, service.ErrNotRecordOwner):
			response.Forbidden(c, 14003, "无权处理该审批记录")
		case errors.Is(err, service.ErrRecordAlreadyDecided):
			response.Conflict(c, 14004, "审批记录已处理，不可重复操作")
		case errors.Is(err, service.ErrPreviousStepsPending):
			response.Conflict(c, 14005, "前序审批步骤尚未完成")
		case errors.Is(err, service.ErrExpenseNotFound):
			response.NotFound(c, 13003, "报销单不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// ListTrail 报销单审批轨迹
// GET /api/v1/expenses/:id/approvals
func (h *ApprovalHandler) ListTrail(c *gin.Context) {
	list, err := h.approvalSvc.ListTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, list)
}
