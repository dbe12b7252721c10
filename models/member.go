package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Member 营员/成员名录
// 对账本而言是只读参考数据：付款记录通过成员 ID 解析显示名
type Member struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	FirstName string         `json:"firstName" gorm:"size:50;not null"`
	LastName  string         `json:"lastName" gorm:"size:50;not null"`
	Email     string         `json:"email" gorm:"size:100"`
	Phone     string         `json:"phone" gorm:"size:30"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (Member) TableName() string {
	return "members"
}

// DisplayName 付款记录中展示的成员姓名
func (m *Member) DisplayName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}
