package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// 预算支出类别常量（固定枚举，不在后台维护）
const (
	CategoryFood      = "营地餐饮"
	CategoryTransport = "交通"
	CategoryLodging   = "住宿"
	CategorySupplies  = "物资"
	CategoryActivity  = "活动"
	CategoryMedical   = "医疗"
	CategoryOther     = "其他"
)

// MaxPaymentNotesLen 单笔付款备注长度上限
const MaxPaymentNotesLen = 200

// GetCategories 获取所有预算支出类别
func GetCategories() []string {
	return []string{
		CategoryFood,
		CategoryTransport,
		CategoryLodging,
		CategorySupplies,
		CategoryActivity,
		CategoryMedical,
		CategoryOther,
	}
}

// IsValidCategory 判断类别是否属于固定枚举
func IsValidCategory(name string) bool {
	for _, c := range GetCategories() {
		if c == name {
			return true
		}
	}
	return false
}

// Payment 单笔付款记录，作为 JSON 数组内嵌在预算支出记录中，
// 不单独建表。WhoPaidName 是写入时从成员名录解析的快照，
// 属于历史留痕，成员改名后不回写。
type Payment struct {
	ID            string    `json:"id"`
	Amount        float64   `json:"amount"`
	WhoPaid       uint      `json:"whoPaid"`
	WhoPaidName   string    `json:"whoPaidName"`
	DatePaid      time.Time `json:"datePaid"`
	MoneyReturned bool      `json:"moneyReturned"`
	Notes         string    `json:"notes,omitempty"`
}

// Validate 校验单笔付款的业务规则
func (p *Payment) Validate() error {
	if p.Amount <= 0 {
		return errors.New("付款金额必须大于 0")
	}
	if p.WhoPaid == 0 {
		return errors.New("必须指定付款人")
	}
	if len([]rune(p.Notes)) > MaxPaymentNotesLen {
		return fmt.Errorf("付款备注不能超过 %d 个字符", MaxPaymentNotesLen)
	}
	return nil
}

// PaymentList 付款序列，保持插入顺序
type PaymentList []Payment

// BudgetExpense 预算支出记录
// 付款序列整体序列化为 JSON 列存储，所有变更都是整行读-改-写；
// 并发追加付款时后写者覆盖前写者（可接受的限制，见 DESIGN.md）。
type BudgetExpense struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	Category    string      `json:"category" gorm:"size:50;not null;index"`
	Item        string      `json:"item" gorm:"size:255;not null"`
	Quantity    int         `json:"quantity" gorm:"not null;default:0"`
	CostAmount  float64     `json:"costAmount" gorm:"type:decimal(10,2);not null"`
	ExpenseDate time.Time   `json:"expenseDate"`
	Notes       string      `json:"notes" gorm:"size:500"`
	Payments    PaymentList `json:"payments" gorm:"serializer:json;type:json"`

	// 旧版单笔支付字段，仅为兼容历史数据保留读取；保存时若这些字段
	// 表示已付款且付款序列为空，会物化为一条合成付款（见 MigrateLegacyPayment）
	AlreadyPaid   bool   `json:"alreadyPaid" gorm:"default:false"`
	WhoPaid       uint   `json:"whoPaid" gorm:"default:0"`
	WhoPaidName   string `json:"whoPaidName" gorm:"size:120"`
	MoneyReturned bool   `json:"moneyReturned" gorm:"default:false"`

	// 派生字段，每次读取时重新计算，永不落库
	TotalPaid       float64 `json:"totalPaid" gorm:"-"`
	RemainingAmount float64 `json:"remainingAmount" gorm:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName 设置表名
func (BudgetExpense) TableName() string {
	return "budget_expenses"
}

// ComputeTotals 重新计算已付合计与剩余金额
// 付款序列非空时 totalPaid = sum(payments[].amount)，
// 否则由旧版 alreadyPaid 标志推导；剩余金额允许为负（超付），不截断
func (e *BudgetExpense) ComputeTotals() {
	if len(e.Payments) > 0 {
		var total float64
		for _, p := range e.Payments {
			total += p.Amount
		}
		e.TotalPaid = total
	} else if e.AlreadyPaid {
		e.TotalPaid = e.CostAmount
	} else {
		e.TotalPaid = 0
	}
	e.RemainingAmount = e.CostAmount - e.TotalPaid
}

// Validate 全量校验业务规则（类别枚举、非负数值、字符串长度）
func (e *BudgetExpense) Validate() error {
	e.Category = strings.TrimSpace(e.Category)
	if !IsValidCategory(e.Category) {
		return fmt.Errorf("无效的支出类别: %s", e.Category)
	}
	if strings.TrimSpace(e.Item) == "" {
		return errors.New("支出项目不能为空")
	}
	if e.Quantity < 0 {
		return errors.New("数量不能为负数")
	}
	if e.CostAmount < 0 {
		return errors.New("支出金额不能为负数")
	}
	if len([]rune(e.Notes)) > 500 {
		return errors.New("备注不能超过 500 个字符")
	}
	for i := range e.Payments {
		if err := e.Payments[i].Validate(); err != nil {
			return fmt.Errorf("第 %d 笔付款: %w", i+1, err)
		}
	}
	return nil
}

// MigrateLegacyPayment 旧数据一次性升级：旧版字段表示已付款且付款序列
// 为空时，物化一条合成付款。显式在保存路径上调用而不是藏在持久化钩子里，
// 便于单独测试。resolve 根据成员 ID 解析显示名，查不到时沿用已缓存的旧名。
// 缺少付款人或金额为零的旧记录构不成一条合法付款，这类记录保持旧字段
// 原样（已付合计仍由 alreadyPaid 标志推导），避免迁移后全量校验把记录
// 卡成不可编辑。返回是否发生了迁移。
func (e *BudgetExpense) MigrateLegacyPayment(newID func() string, resolve func(uint) (string, error)) bool {
	if !e.AlreadyPaid || len(e.Payments) > 0 {
		return false
	}
	if e.WhoPaid == 0 || e.CostAmount <= 0 {
		return false
	}

	name := e.WhoPaidName
	if e.WhoPaid != 0 && resolve != nil {
		if n, err := resolve(e.WhoPaid); err == nil {
			name = n
		}
	}

	datePaid := e.ExpenseDate
	if datePaid.IsZero() {
		datePaid = time.Now()
	}

	e.Payments = PaymentList{{
		ID:            newID(),
		Amount:        e.CostAmount,
		WhoPaid:       e.WhoPaid,
		WhoPaidName:   name,
		DatePaid:      datePaid,
		MoneyReturned: e.MoneyReturned,
		Notes:         "由旧版付款字段迁移",
	}}
	return true
}

// FindPayment 按 ID 在付款序列中查找，返回索引，未找到返回 -1
func (e *BudgetExpense) FindPayment(paymentID string) int {
	for i := range e.Payments {
		if e.Payments[i].ID == paymentID {
			return i
		}
	}
	return -1
}

// RemovePayment 移除恰好一条匹配的付款
// 通过移除前后序列长度对比判断是否命中
func (e *BudgetExpense) RemovePayment(paymentID string) bool {
	before := len(e.Payments)
	kept := e.Payments[:0]
	removed := false
	for _, p := range e.Payments {
		if !removed && p.ID == paymentID {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	e.Payments = kept
	return len(e.Payments) < before
}
