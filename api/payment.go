package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"campadmin/database"
	"campadmin/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentHandler 付款记录处理器
// 付款内嵌在支出记录的 JSON 列中，所有操作都是整行读-改-写
type PaymentHandler struct{}

// NewPaymentHandler 创建付款记录处理器
func NewPaymentHandler() *PaymentHandler {
	return &PaymentHandler{}
}

// AddPaymentRequest 新增付款请求
type AddPaymentRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0" example:"400.00"`
	WhoPaid       uint    `json:"whoPaid" binding:"required" example:"1"`
	DatePaid      string  `json:"datePaid" example:"2024-07-01"`
	MoneyReturned bool    `json:"moneyReturned"`
	Notes         string  `json:"notes" binding:"max=200" example:"现金垫付"`
}

// UpdatePaymentRequest 更新付款请求，未提供的字段保持原值
type UpdatePaymentRequest struct {
	Amount        *float64 `json:"amount" binding:"omitempty,gt=0"`
	WhoPaid       *uint    `json:"whoPaid"`
	WhoPaidName   *string  `json:"whoPaidName"`
	DatePaid      *string  `json:"datePaid"`
	MoneyReturned *bool    `json:"moneyReturned"`
	Notes         *string  `json:"notes" binding:"omitempty,max=200"`
}

// parsePaymentDate 解析付款日期，支持日期或日期时间两种格式
func parsePaymentDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, errors.New("付款日期格式错误，应为: 2006-01-02 或 2006-01-02 15:04:05")
	}
	return t, nil
}

// Add 新增付款
// @Summary 新增付款
// @Description 向支出记录的付款序列追加一笔付款（仅追加，顺序即录入顺序），写入时解析付款成员显示名快照，返回带最新计算金额的支出记录
// @Tags 付款
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出 ID"
// @Param request body AddPaymentRequest true "付款信息"
// @Success 201 {object} Response{data=models.BudgetExpense} "新增成功"
// @Failure 400 {object} Response "金额非法或参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "支出记录或付款成员不存在"
// @Router /budget/{id}/payments [post]
func (h *PaymentHandler) Add(c *gin.Context) {
	id, ok := parseExpenseID(c)
	if !ok {
		return
	}

	var req AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if details := BindingDetails(err); details != nil {
			BadRequestWithDetails(c, "参数校验失败", details)
			return
		}
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	expense, ok := findExpense(c, id)
	if !ok {
		return
	}

	// 写入时解析显示名快照，同时确认成员存在
	name, err := resolveMemberName(req.WhoPaid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "付款成员不存在")
		} else {
			InternalError(c, SafeErrorMessage(err, "查询成员失败"))
		}
		return
	}

	datePaid := time.Now()
	if req.DatePaid != "" {
		datePaid, err = parsePaymentDate(req.DatePaid)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
	}

	payment := models.Payment{
		ID:            uuid.NewString(),
		Amount:        req.Amount,
		WhoPaid:       req.WhoPaid,
		WhoPaidName:   name,
		DatePaid:      datePaid,
		MoneyReturned: req.MoneyReturned,
		Notes:         req.Notes,
	}
	if err := payment.Validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}

	expense.Payments = append(expense.Payments, payment)

	if err := database.DB.Save(expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "保存付款失败"))
		return
	}

	expense.ComputeTotals()
	Created(c, "付款已记录", expense)
}

// Update 更新付款
// @Summary 更新付款
// @Description 按付款 ID 浅合并更新，未提供的字段保持原值；付款成员变化时重新解析显示名，否则调用方提供的显示名原样采信
// @Tags 付款
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出 ID"
// @Param paymentId path string true "付款 ID"
// @Param request body UpdatePaymentRequest true "要更新的字段"
// @Success 200 {object} Response{data=models.BudgetExpense} "更新成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "支出、付款或成员不存在"
// @Router /budget/{id}/payments/{paymentId} [put]
func (h *PaymentHandler) Update(c *gin.Context) {
	id, ok := parseExpenseID(c)
	if !ok {
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if details := BindingDetails(err); details != nil {
			BadRequestWithDetails(c, "参数校验失败", details)
			return
		}
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	expense, ok := findExpense(c, id)
	if !ok {
		return
	}

	idx := expense.FindPayment(c.Param("paymentId"))
	if idx < 0 {
		NotFound(c, "付款记录不存在")
		return
	}
	payment := &expense.Payments[idx]

	// 浅合并：仅覆盖请求中出现的字段
	if req.Amount != nil {
		payment.Amount = *req.Amount
	}
	if req.WhoPaid != nil && *req.WhoPaid != payment.WhoPaid {
		name, err := resolveMemberName(*req.WhoPaid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				NotFound(c, "付款成员不存在")
			} else {
				InternalError(c, SafeErrorMessage(err, "查询成员失败"))
			}
			return
		}
		payment.WhoPaid = *req.WhoPaid
		payment.WhoPaidName = name
	} else if req.WhoPaidName != nil {
		// 付款人未变化时，调用方提供的显示名原样采信
		payment.WhoPaidName = *req.WhoPaidName
	}
	if req.DatePaid != nil {
		d, err := parsePaymentDate(*req.DatePaid)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		payment.DatePaid = d
	}
	if req.MoneyReturned != nil {
		payment.MoneyReturned = *req.MoneyReturned
	}
	if req.Notes != nil {
		payment.Notes = *req.Notes
	}

	if err := payment.Validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := database.DB.Save(expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "保存付款失败"))
		return
	}

	expense.ComputeTotals()
	SuccessWithMessage(c, "付款已更新", expense)
}

// Delete 删除付款
// @Summary 删除付款
// @Description 移除恰好一条匹配的付款；对同一 ID 的第二次删除返回 404
// @Tags 付款
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出 ID"
// @Param paymentId path string true "付款 ID"
// @Success 200 {object} Response{data=models.BudgetExpense} "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "支出或付款不存在"
// @Router /budget/{id}/payments/{paymentId} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := parseExpenseID(c)
	if !ok {
		return
	}

	expense, ok := findExpense(c, id)
	if !ok {
		return
	}

	if !expense.RemovePayment(c.Param("paymentId")) {
		NotFound(c, "付款记录不存在")
		return
	}

	if err := database.DB.Save(expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "保存付款失败"))
		return
	}

	expense.ComputeTotals()
	SuccessWithMessage(c, "付款已删除", expense)
}

// replacePaymentItem 批量替换中的单条付款
type replacePaymentItem struct {
	ID            string  `json:"id"`
	Amount        float64 `json:"amount"`
	WhoPaid       uint    `json:"whoPaid"`
	DatePaid      string  `json:"datePaid"`
	MoneyReturned bool    `json:"moneyReturned"`
	Notes         string  `json:"notes"`
}

// ReplaceAll 批量替换付款序列
// @Summary 批量替换付款序列
// @Description 用请求中的数组整体原子替换付款序列并重新全量校验；payments 不是数组时返回 400，任一条校验失败则整体不写入
// @Tags 付款
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出 ID"
// @Param request body object true "{payments: [...]}"
// @Success 200 {object} Response{data=models.BudgetExpense} "替换成功"
// @Failure 400 {object} Response "payments 非数组或校验失败"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "支出或成员不存在"
// @Router /budget/{id}/payments [put]
func (h *PaymentHandler) ReplaceAll(c *gin.Context) {
	id, ok := parseExpenseID(c)
	if !ok {
		return
	}

	var body struct {
		Payments json.RawMessage `json:"payments"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// payments 必须是数组类型
	raw := strings.TrimSpace(string(body.Payments))
	if raw == "" || !strings.HasPrefix(raw, "[") {
		BadRequest(c, "payments 必须为数组")
		return
	}

	var items []replacePaymentItem
	if err := json.Unmarshal(body.Payments, &items); err != nil {
		BadRequest(c, SafeErrorMessage(err, "payments 解析失败"))
		return
	}

	expense, ok := findExpense(c, id)
	if !ok {
		return
	}

	// 整体替换：任一条校验失败则不落库
	payments := make(models.PaymentList, 0, len(items))
	for i, item := range items {
		name, err := resolveMemberName(item.WhoPaid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				NotFound(c, fmt.Sprintf("第 %d 笔付款的成员不存在", i+1))
			} else {
				InternalError(c, SafeErrorMessage(err, "查询成员失败"))
			}
			return
		}

		datePaid := time.Now()
		if item.DatePaid != "" {
			datePaid, err = parsePaymentDate(item.DatePaid)
			if err != nil {
				BadRequest(c, fmt.Sprintf("第 %d 笔付款: %s", i+1, err.Error()))
				return
			}
		}

		paymentID := item.ID
		if paymentID == "" {
			paymentID = uuid.NewString()
		}

		payment := models.Payment{
			ID:            paymentID,
			Amount:        item.Amount,
			WhoPaid:       item.WhoPaid,
			WhoPaidName:   name,
			DatePaid:      datePaid,
			MoneyReturned: item.MoneyReturned,
			Notes:         item.Notes,
		}
		if err := payment.Validate(); err != nil {
			BadRequest(c, fmt.Sprintf("第 %d 笔付款: %s", i+1, err.Error()))
			return
		}
		payments = append(payments, payment)
	}

	expense.Payments = payments

	if err := database.DB.Save(expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "保存付款失败"))
		return
	}

	expense.ComputeTotals()
	SuccessWithMessage(c, "付款序列已替换", expense)
}
