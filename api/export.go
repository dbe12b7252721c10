package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"campadmin/database"
	"campadmin/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// loadLedger 读取全部支出记录并计算派生金额
func loadLedger() ([]models.BudgetExpense, error) {
	var expenses []models.BudgetExpense
	if err := database.DB.Order("expense_date DESC").Find(&expenses).Error; err != nil {
		return nil, err
	}
	for i := range expenses {
		expenses[i].ComputeTotals()
	}
	return expenses, nil
}

// boolText 布尔值的导出文案
func boolText(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

// ExportCSV 导出预算账本为 CSV
// @Summary 导出预算账本为 CSV
// @Description 导出全部支出记录为 CSV 文件，含计算出的已付合计与剩余金额
// @Tags 导出
// @Accept json
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file "CSV 文件"
// @Failure 401 {object} Response "未授权"
// @Router /export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	expenses, err := loadLedger()
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	// 生成 CSV
	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)

	// 写入表头
	headers := []string{"ID", "类别", "项目", "数量", "支出金额", "已付合计", "剩余金额", "付款笔数", "支出日期", "备注"}
	if err := writer.Write(headers); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	// 写入数据
	for _, expense := range expenses {
		row := []string{
			fmt.Sprintf("%d", expense.ID),
			expense.Category,
			expense.Item,
			fmt.Sprintf("%d", expense.Quantity),
			fmt.Sprintf("%.2f", expense.CostAmount),
			fmt.Sprintf("%.2f", expense.TotalPaid),
			fmt.Sprintf("%.2f", expense.RemainingAmount),
			fmt.Sprintf("%d", len(expense.Payments)),
			expense.ExpenseDate.Format("2006-01-02"),
			expense.Notes,
		}
		if err := writer.Write(row); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	// 设置响应头
	filename := fmt.Sprintf("budget_%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))

	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportExcel 导出预算账本为 Excel
// @Summary 导出预算账本为 Excel
// @Description 导出全部支出记录为 xlsx 文件，第一张表为账本总表，第二张表为付款明细
// @Tags 导出
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file "Excel 文件"
// @Failure 401 {object} Response "未授权"
// @Router /export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	expenses, err := loadLedger()
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	// 创建 Excel 文件
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "预算账本"
	f.SetSheetName("Sheet1", sheetName)

	// 设置表头样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	// 数据样式
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	// 设置列宽
	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 12)
	f.SetColWidth(sheetName, "C", "C", 30)
	f.SetColWidth(sheetName, "D", "G", 12)
	f.SetColWidth(sheetName, "H", "H", 14)
	f.SetColWidth(sheetName, "I", "I", 24)

	// 写入表头
	headers := []string{"ID", "类别", "项目", "数量", "支出金额", "已付合计", "剩余金额", "支出日期", "备注"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	// 写入数据
	var totalCost, totalPaid float64
	for i, expense := range expenses {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), expense.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), expense.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), expense.Item)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), expense.Quantity)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), expense.CostAmount)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), expense.TotalPaid)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), expense.RemainingAmount)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), expense.ExpenseDate.Format("2006-01-02"))
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), expense.Notes)

		// 设置数据样式
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("I%d", row), dataStyle)
		totalCost += expense.CostAmount
		totalPaid += expense.TotalPaid
	}

	// 添加汇总行
	summaryRow := len(expenses) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "合计")
	f.MergeCell(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("D%d", summaryRow))
	f.SetCellValue(sheetName, fmt.Sprintf("E%d", summaryRow), totalCost)
	f.SetCellValue(sheetName, fmt.Sprintf("F%d", summaryRow), totalPaid)
	f.SetCellValue(sheetName, fmt.Sprintf("G%d", summaryRow), totalCost-totalPaid)
	f.SetCellValue(sheetName, fmt.Sprintf("H%d", summaryRow), fmt.Sprintf("共 %d 条记录", len(expenses)))
	f.MergeCell(sheetName, fmt.Sprintf("H%d", summaryRow), fmt.Sprintf("I%d", summaryRow))
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("I%d", summaryRow), summaryStyle)

	// 付款明细表
	detailSheet := "付款明细"
	f.NewSheet(detailSheet)
	detailHeaders := []string{"支出 ID", "支出项目", "付款 ID", "金额", "付款人", "付款日期", "已退款", "备注"}
	for i, header := range detailHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(detailSheet, cell, header)
		f.SetCellStyle(detailSheet, cell, cell, headerStyle)
	}
	f.SetColWidth(detailSheet, "A", "A", 10)
	f.SetColWidth(detailSheet, "B", "B", 30)
	f.SetColWidth(detailSheet, "C", "C", 38)
	f.SetColWidth(detailSheet, "D", "H", 14)

	detailRow := 2
	for _, expense := range expenses {
		for _, p := range expense.Payments {
			f.SetCellValue(detailSheet, fmt.Sprintf("A%d", detailRow), expense.ID)
			f.SetCellValue(detailSheet, fmt.Sprintf("B%d", detailRow), expense.Item)
			f.SetCellValue(detailSheet, fmt.Sprintf("C%d", detailRow), p.ID)
			f.SetCellValue(detailSheet, fmt.Sprintf("D%d", detailRow), p.Amount)
			f.SetCellValue(detailSheet, fmt.Sprintf("E%d", detailRow), p.WhoPaidName)
			f.SetCellValue(detailSheet, fmt.Sprintf("F%d", detailRow), p.DatePaid.Format("2006-01-02"))
			f.SetCellValue(detailSheet, fmt.Sprintf("G%d", detailRow), boolText(p.MoneyReturned))
			f.SetCellValue(detailSheet, fmt.Sprintf("H%d", detailRow), p.Notes)
			f.SetCellStyle(detailSheet, fmt.Sprintf("A%d", detailRow), fmt.Sprintf("H%d", detailRow), dataStyle)
			detailRow++
		}
	}

	// 设置响应头
	filename := fmt.Sprintf("预算账本_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))

	// 写入响应
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}
}
