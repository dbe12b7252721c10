package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"campadmin/database"
	"campadmin/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BudgetHandler 预算支出处理器
type BudgetHandler struct{}

// NewBudgetHandler 创建预算支出处理器
func NewBudgetHandler() *BudgetHandler {
	return &BudgetHandler{}
}

// BudgetExpenseRequest 创建/更新预算支出请求
// 更新为整条记录编辑（不含付款序列，付款由付款接口单独维护）
type BudgetExpenseRequest struct {
	Category    string  `json:"category" binding:"required" example:"营地餐饮"`
	Item        string  `json:"item" binding:"required,max=255" example:"营地午餐食材"`
	Quantity    int     `json:"quantity" binding:"gte=0" example:"3"`
	CostAmount  float64 `json:"costAmount" binding:"gte=0" example:"450.00"`
	ExpenseDate string  `json:"expenseDate" example:"2024-07-01"`
	Notes       string  `json:"notes" binding:"max=500" example:"周末采购"`

	// 旧版单笔支付字段，兼容老客户端
	AlreadyPaid   bool `json:"alreadyPaid"`
	WhoPaid       uint `json:"whoPaid"`
	MoneyReturned bool `json:"moneyReturned"`
}

// BudgetListRequest 预算支出列表请求
type BudgetListRequest struct {
	Page     int    `form:"page" example:"1"`
	PageSize int    `form:"page_size" example:"10"`
	Category string `form:"category" example:"营地餐饮"`
}

// applyTo 把请求字段套用到模型上并解析日期
func (req *BudgetExpenseRequest) applyTo(e *models.BudgetExpense) error {
	e.Category = strings.TrimSpace(req.Category)
	e.Item = strings.TrimSpace(req.Item)
	e.Quantity = req.Quantity
	e.CostAmount = req.CostAmount
	e.Notes = req.Notes
	e.AlreadyPaid = req.AlreadyPaid
	e.WhoPaid = req.WhoPaid
	e.MoneyReturned = req.MoneyReturned
	// 付款人被清空时缓存的显示名一并清掉，不留无主快照
	if req.WhoPaid == 0 {
		e.WhoPaidName = ""
	}

	if req.ExpenseDate != "" {
		d, err := time.ParseInLocation("2006-01-02", req.ExpenseDate, time.Local)
		if err != nil {
			return errors.New("日期格式错误，应为: 2006-01-02")
		}
		e.ExpenseDate = d
	}
	return nil
}

// parseExpenseID 解析路径中的支出 ID
func parseExpenseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的支出 ID")
		return 0, false
	}
	return uint(id), true
}

// findExpense 按 ID 加载支出记录，未找到时写出 404
func findExpense(c *gin.Context, id uint) (*models.BudgetExpense, bool) {
	var expense models.BudgetExpense
	if err := database.DB.First(&expense, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "支出记录不存在")
		} else {
			InternalError(c, SafeErrorMessage(err, "查询支出记录失败"))
		}
		return nil, false
	}
	return &expense, true
}

// List 获取预算支出列表
// @Summary 获取预算支出列表
// @Description 获取预算支出列表，支持分页和类别筛选，每条记录带计算出的已付合计与剩余金额
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param category query string false "类别筛选"
// @Success 200 {object} Response{data=PageResponse{list=[]models.BudgetExpense}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /budget [get]
func (h *BudgetHandler) List(c *gin.Context) {
	var req BudgetListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 默认分页参数
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	query := database.DB.Model(&models.BudgetExpense{})
	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}

	var total int64
	query.Count(&total)

	var expenses []models.BudgetExpense
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("expense_date DESC").Offset(offset).Limit(req.PageSize).Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	// 派生金额每次读取时重新计算
	for i := range expenses {
		expenses[i].ComputeTotals()
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     expenses,
	})
}

// Get 获取单条预算支出
// @Summary 获取单条预算支出
// @Description 根据 ID 获取预算支出详情，含付款序列与计算金额
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出 ID"
// @Success 200 {object} Response{data=models.BudgetExpense} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /budget/{id} [get]
func (h *BudgetHandler) Get(c *gin.Context) {
	id, ok := parseExpenseID(c)
	if !ok {
		return
	}

	expense, ok := findExpense(c, id)
	if !ok {
		return
	}

	expense.ComputeTotals()
	Success(c, expense)
}

// Create 创建预算支出
// @Summary 创建预算支出
// @Description 创建一条新的预算支出记录。旧版 whoPaid 字段若设置会解析成员显示名，旧版付款标志会物化为一条付款。
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BudgetExpenseRequest true "支出信息"
// @Success 201 {object} Response{data=models.BudgetExpense} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "付款成员不存在"
// @Router /budget [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	var req BudgetExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if details := BindingDetails(err); details != nil {
			BadRequestWithDetails(c, "参数校验失败", details)
			return
		}
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	var expense models.BudgetExpense
	if err := req.applyTo(&expense); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if expense.ExpenseDate.IsZero() {
		expense.ExpenseDate = time.Now()
	}

	// 旧版付款人字段指向成员名录，写入时解析显示名快照
	if expense.WhoPaid != 0 {
		name, err := resolveMemberName(expense.WhoPaid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				NotFound(c, "付款成员不存在")
			} else {
				InternalError(c, SafeErrorMessage(err, "查询成员失败"))
			}
			return
		}
		expense.WhoPaidName = name
	}

	// 旧版字段一次性升级为付款序列
	expense.MigrateLegacyPayment(uuid.NewString, resolveMemberName)

	if err := expense.Validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := database.DB.Create(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建支出记录失败"))
		return
	}

	expense.ComputeTotals()
	Created(c, "创建成功", expense)
}

// Update 更新预算支出
// @Summary 更新预算支出
// @Description 整条记录编辑并重新全量校验；付款序列不在此处修改。旧版 whoPaid 有值时重新解析显示名。
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出 ID"
// @Param request body BudgetExpenseRequest true "支出信息"
// @Success 200 {object} Response{data=models.BudgetExpense} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /budget/{id} [put]
func (h *BudgetHandler) Update(c *gin.Context) {
	id, ok := parseExpenseID(c)
	if !ok {
		return
	}

	expense, ok := findExpense(c, id)
	if !ok {
		return
	}

	var req BudgetExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if details := BindingDetails(err); details != nil {
			BadRequestWithDetails(c, "参数校验失败", details)
			return
		}
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if err := req.applyTo(expense); err != nil {
		BadRequest(c, err.Error())
		return
	}

	// 旧版付款人字段有值时重新解析显示名，成员改名后快照跟着刷新
	if expense.WhoPaid != 0 {
		name, err := resolveMemberName(expense.WhoPaid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				NotFound(c, "付款成员不存在")
			} else {
				InternalError(c, SafeErrorMessage(err, "查询成员失败"))
			}
			return
		}
		expense.WhoPaidName = name
	}

	expense.MigrateLegacyPayment(uuid.NewString, resolveMemberName)

	if err := expense.Validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := database.DB.Save(expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新支出记录失败"))
		return
	}

	expense.ComputeTotals()
	SuccessWithMessage(c, "更新成功", expense)
}

// Delete 删除预算支出
// @Summary 删除预算支出
// @Description 物理删除一条支出记录，响应中返回被删除的记录，便于调用方审计或撤销
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出 ID"
// @Success 200 {object} Response{data=models.BudgetExpense} "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /budget/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	id, ok := parseExpenseID(c)
	if !ok {
		return
	}

	expense, ok := findExpense(c, id)
	if !ok {
		return
	}

	if err := database.DB.Delete(&models.BudgetExpense{}, id).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除支出记录失败"))
		return
	}

	expense.ComputeTotals()
	SuccessWithMessage(c, "删除成功", expense)
}

// CategorySummary 单个类别的汇总
type CategorySummary struct {
	Category        string  `json:"category"`
	ExpenseCount    int     `json:"expenseCount"`
	CostAmount      float64 `json:"costAmount"`
	TotalPaid       float64 `json:"totalPaid"`
	RemainingAmount float64 `json:"remainingAmount"`
}

// BudgetSummary 预算总览
type BudgetSummary struct {
	Categories      []CategorySummary `json:"categories"`
	ExpenseCount    int               `json:"expenseCount"`
	CostAmount      float64           `json:"costAmount"`
	TotalPaid       float64           `json:"totalPaid"`
	RemainingAmount float64           `json:"remainingAmount"`
}

// Summary 预算总览
// @Summary 预算总览
// @Description 按类别汇总支出金额、已付合计与剩余金额，外加全局合计
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=BudgetSummary} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /budget/summary [get]
func (h *BudgetHandler) Summary(c *gin.Context) {
	var expenses []models.BudgetExpense
	if err := database.DB.Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	// 付款序列存在 JSON 列里，聚合只能在进程内完成
	byCategory := make(map[string]*CategorySummary)
	summary := BudgetSummary{}
	for i := range expenses {
		e := &expenses[i]
		e.ComputeTotals()

		cs, ok := byCategory[e.Category]
		if !ok {
			cs = &CategorySummary{Category: e.Category}
			byCategory[e.Category] = cs
		}
		cs.ExpenseCount++
		cs.CostAmount += e.CostAmount
		cs.TotalPaid += e.TotalPaid
		cs.RemainingAmount += e.RemainingAmount

		summary.ExpenseCount++
		summary.CostAmount += e.CostAmount
		summary.TotalPaid += e.TotalPaid
		summary.RemainingAmount += e.RemainingAmount
	}

	// 按固定枚举顺序输出，空类别跳过
	for _, name := range models.GetCategories() {
		if cs, ok := byCategory[name]; ok {
			summary.Categories = append(summary.Categories, *cs)
		}
	}

	Success(c, summary)
}
