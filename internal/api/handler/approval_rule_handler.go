package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"expensio/backend/internal/dto"
	"expensio/backend/internal/service"
	"expensio/backend/pkg/response"
)

// ApprovalRuleHandler 审批规则模块 HTTP 处理器（管理员专用）
type ApprovalRuleHandler struct {
	ruleSvc service.ApprovalRuleService
}

// NewApprovalRuleHandler 创建 ApprovalRuleHandler
func NewApprovalRuleHandler(ruleSvc service.ApprovalRuleService) *ApprovalRuleHandler {
	return &ApprovalRuleHandler{ruleSvc: ruleSvc}
}

// Get 查询公司审批规则
// GET /api/v1/approval-rules
func (h *ApprovalRuleHandler) Get(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	result, err := h.ruleSvc.GetByCompany(c.Request.Context(), companyID)
	if err != nil {
		if errors.Is(err, service.ErrRuleNotFound) {
			response.NotFound(c, 15001, "审批规则未配置")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Upsert 创建/覆盖公司审批规则
// PUT /api/v1/approval-rules
func (h *ApprovalRuleHandler) Upsert(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	var req dto.UpsertApprovalRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.ruleSvc.Upsert(c.Request.Context(), companyID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRuleType):
			response.BadRequest(c, 15002, "规则类型无效")
		case errors.Is(err, service.ErrThresholdRequired):
			response.BadRequest(c, 15003, "Percentage/Hybrid 规则必须配置 1-100 的阈值百分比")
		case errors.Is(err, service.ErrSpecificIDRequired):
			response.BadRequest(c, 15004, "SpecificApprover/Hybrid 规则必须指定审批人")
		case errors.Is(err, service.ErrDuplicateApprovers):
			response.BadRequest(c, 15005, "审批人池中存在重复的审批人")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}
