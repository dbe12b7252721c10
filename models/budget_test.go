package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	e := BudgetExpense{
		CostAmount: 1000,
		Payments: PaymentList{
			{ID: "p1", Amount: 400, WhoPaid: 1, WhoPaidName: "张 三"},
			{ID: "p2", Amount: 300, WhoPaid: 2, WhoPaidName: "李 四"},
		},
	}
	e.ComputeTotals()
	assert.Equal(t, 700.0, e.TotalPaid)
	assert.Equal(t, 300.0, e.RemainingAmount)

	// 删除一笔后重算
	require.True(t, e.RemovePayment("p1"))
	e.ComputeTotals()
	assert.Equal(t, 300.0, e.TotalPaid)
	assert.Equal(t, 700.0, e.RemainingAmount)
}

func TestComputeTotals_Overpayment(t *testing.T) {
	// 超付时剩余金额为负，不截断
	e := BudgetExpense{
		CostAmount: 100,
		Payments:   PaymentList{{ID: "p1", Amount: 150, WhoPaid: 1}},
	}
	e.ComputeTotals()
	assert.Equal(t, 150.0, e.TotalPaid)
	assert.Equal(t, -50.0, e.RemainingAmount)
}

func TestComputeTotals_LegacyFlag(t *testing.T) {
	// 付款序列为空时由旧版 alreadyPaid 标志推导
	e := BudgetExpense{CostAmount: 500, AlreadyPaid: true}
	e.ComputeTotals()
	assert.Equal(t, 500.0, e.TotalPaid)
	assert.Equal(t, 0.0, e.RemainingAmount)

	e2 := BudgetExpense{CostAmount: 500}
	e2.ComputeTotals()
	assert.Equal(t, 0.0, e2.TotalPaid)
	assert.Equal(t, 500.0, e2.RemainingAmount)
}

func TestMigrateLegacyPayment(t *testing.T) {
	e := BudgetExpense{
		CostAmount:    800,
		AlreadyPaid:   true,
		WhoPaid:       7,
		WhoPaidName:   "旧名字",
		MoneyReturned: true,
		ExpenseDate:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.Local),
	}

	migrated := e.MigrateLegacyPayment(
		func() string { return "fixed-id" },
		func(id uint) (string, error) {
			assert.Equal(t, uint(7), id)
			return "王 五", nil
		},
	)
	require.True(t, migrated)
	require.Len(t, e.Payments, 1)

	p := e.Payments[0]
	assert.Equal(t, "fixed-id", p.ID)
	assert.Equal(t, 800.0, p.Amount)
	assert.Equal(t, uint(7), p.WhoPaid)
	assert.Equal(t, "王 五", p.WhoPaidName)
	assert.True(t, p.MoneyReturned)
	assert.Equal(t, e.ExpenseDate, p.DatePaid)

	// 迁移后派生金额来自付款序列
	e.ComputeTotals()
	assert.Equal(t, 800.0, e.TotalPaid)
}

func TestMigrateLegacyPayment_NoOp(t *testing.T) {
	newID := func() string { return "x" }

	// 未付款不迁移
	e := BudgetExpense{CostAmount: 100}
	assert.False(t, e.MigrateLegacyPayment(newID, nil))
	assert.Empty(t, e.Payments)

	// 已有付款序列不迁移（不产生重复数据）
	e2 := BudgetExpense{
		CostAmount:  100,
		AlreadyPaid: true,
		Payments:    PaymentList{{ID: "p1", Amount: 100, WhoPaid: 1}},
	}
	assert.False(t, e2.MigrateLegacyPayment(newID, nil))
	assert.Len(t, e2.Payments, 1)
}

func TestMigrateLegacyPayment_IncompleteLegacyFields(t *testing.T) {
	newID := func() string { return "x" }

	// 已付款但没有付款人：构不成合法付款，不迁移，
	// 记录保持可编辑（全量校验必须通过）
	e := BudgetExpense{
		Category:    CategoryTransport,
		Item:        "包车",
		CostAmount:  800,
		AlreadyPaid: true,
	}
	assert.False(t, e.MigrateLegacyPayment(newID, nil))
	assert.Empty(t, e.Payments)
	require.NoError(t, e.Validate())

	// 已付合计仍由旧版标志推导
	e.ComputeTotals()
	assert.Equal(t, 800.0, e.TotalPaid)
	assert.Equal(t, 0.0, e.RemainingAmount)

	// 金额为零同理：合成付款过不了金额校验，不迁移
	e2 := BudgetExpense{
		Category:    CategoryOther,
		Item:        "赠品",
		CostAmount:  0,
		AlreadyPaid: true,
		WhoPaid:     7,
		WhoPaidName: "王 五",
	}
	assert.False(t, e2.MigrateLegacyPayment(newID, nil))
	assert.Empty(t, e2.Payments)
	require.NoError(t, e2.Validate())
}

func TestRemovePayment(t *testing.T) {
	e := BudgetExpense{
		Payments: PaymentList{
			{ID: "a", Amount: 1, WhoPaid: 1},
			{ID: "b", Amount: 2, WhoPaid: 2},
		},
	}

	// 第一次删除成功，第二次同 ID 未命中
	assert.True(t, e.RemovePayment("a"))
	assert.False(t, e.RemovePayment("a"))
	require.Len(t, e.Payments, 1)
	assert.Equal(t, "b", e.Payments[0].ID)

	assert.False(t, e.RemovePayment("unknown"))
}

func TestFindPayment(t *testing.T) {
	e := BudgetExpense{
		Payments: PaymentList{
			{ID: "a", Amount: 1, WhoPaid: 1},
			{ID: "b", Amount: 2, WhoPaid: 2},
		},
	}
	assert.Equal(t, 1, e.FindPayment("b"))
	assert.Equal(t, -1, e.FindPayment("c"))
}

func TestPaymentValidate(t *testing.T) {
	p := Payment{Amount: 100, WhoPaid: 1}
	assert.NoError(t, p.Validate())

	// 金额必须大于 0
	assert.Error(t, (&Payment{Amount: 0, WhoPaid: 1}).Validate())
	assert.Error(t, (&Payment{Amount: -5, WhoPaid: 1}).Validate())

	// 必须指定付款人
	assert.Error(t, (&Payment{Amount: 100}).Validate())

	// 备注上限 200 字符
	long := Payment{Amount: 100, WhoPaid: 1, Notes: strings.Repeat("备", 201)}
	assert.Error(t, long.Validate())
	ok := Payment{Amount: 100, WhoPaid: 1, Notes: strings.Repeat("备", 200)}
	assert.NoError(t, ok.Validate())
}

func TestBudgetExpenseValidate(t *testing.T) {
	valid := BudgetExpense{
		Category:   CategoryFood,
		Item:       "营地午餐食材",
		Quantity:   3,
		CostAmount: 450,
	}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Category = "不存在的类别"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Item = "  "
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Quantity = -1
	assert.Error(t, bad.Validate())

	bad = valid
	bad.CostAmount = -0.01
	assert.Error(t, bad.Validate())

	// 内嵌付款一并校验
	bad = valid
	bad.Payments = PaymentList{{ID: "p1", Amount: -1, WhoPaid: 1}}
	assert.Error(t, bad.Validate())
}

func TestIsValidCategory(t *testing.T) {
	for _, c := range GetCategories() {
		assert.True(t, IsValidCategory(c))
	}
	assert.False(t, IsValidCategory("餐饮外卖"))
	assert.False(t, IsValidCategory(""))
}

func TestMemberDisplayName(t *testing.T) {
	m := Member{FirstName: "小明", LastName: "陈"}
	assert.Equal(t, "小明 陈", m.DisplayName())

	m2 := Member{FirstName: "Anna", LastName: ""}
	assert.Equal(t, "Anna", m2.DisplayName())
}
