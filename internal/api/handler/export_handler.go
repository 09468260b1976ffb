package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"expensio/backend/internal/service"
	"expensio/backend/pkg/response"
)

// ExportHandler 报表导出 HTTP 处理器（管理员专用）
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportExpenses 导出公司报销报表（xlsx）
// GET /api/v1/expenses/export
func (h *ExportHandler) ExportExpenses(c *gin.Context) {
	companyID, ok := MustGetCompanyID(c)
	if !ok {
		return
	}

	data, filename, err := h.exportSvc.ExportCompanyExpenses(c.Request.Context(), companyID)
	if err != nil {
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
