package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"expensio/backend/internal/model"
	"expensio/backend/internal/repository"
)

// ExportService 报销报表导出接口
type ExportService interface {
	// ExportCompanyExpenses 导出公司全量报销单为 xlsx，返回文件字节流
	ExportCompanyExpenses(ctx context.Context, companyID string) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ────────────────────── ExportCompanyExpenses ──────────────────────

func (s *exportService) ExportCompanyExpenses(ctx context.Context, companyID string) ([]byte, string, error) {
	company, err := s.repo.Company.GetByID(ctx, companyID)
	if err != nil {
		s.logger.Error("查询公司失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, "", err
	}

	expenses, err := s.repo.Expense.ListByCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("查询公司报销单失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Expenses"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"报销单ID", "员工邮箱", "类别", "描述", "原始金额", "原始币种", "入账金额", "本位币", "报销日期", "状态", "提交时间"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	// 表头加粗
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
		f.SetCellStyle(sheet, "A1", endCell, style)
	}

	for row, exp := range expenses {
		email := ""
		if exp.Employee != nil {
			email = exp.Employee.Email
		}
		values := []interface{}{
			exp.ExpenseID,
			email,
			exp.Category,
			exp.Description,
			exp.OriginalAmount.StringFixed(2),
			exp.OriginalCurrency,
			exp.Amount.StringFixed(2),
			company.Currency,
			exp.ExpenseDate.Format("2006-01-02"),
			string(exp.Status),
			exp.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	// 汇总行：仅统计已批准金额
	approvedTotal := sumApproved(expenses)
	totalRow := len(expenses) + 3
	cell, _ := excelize.CoordinatesToCellName(1, totalRow)
	f.SetCellValue(sheet, cell, "已批准合计 ("+company.Currency+")")
	cell, _ = excelize.CoordinatesToCellName(2, totalRow)
	f.SetCellValue(sheet, cell, approvedTotal)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		s.logger.Error("生成 xlsx 失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, "", err
	}

	filename := fmt.Sprintf("expenses_%s.xlsx", company.Name)
	return buf.Bytes(), filename, nil
}

func sumApproved(expenses []model.Expense) string {
	sum := decimal.Zero
	for i := range expenses {
		if expenses[i].Status == model.StatusApproved {
			sum = sum.Add(expenses[i].Amount)
		}
	}
	return sum.StringFixed(2)
}
