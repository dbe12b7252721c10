package service

import (
	"strings"
	"testing"

	"campadmin/config"

	"github.com/stretchr/testify/assert"
)

func TestSendRegistrationConfirmation_Disabled(t *testing.T) {
	s := NewEmailService(&config.EmailConfig{Enabled: false})

	// 未启用时直接报错，不尝试连接 SMTP
	err := s.SendRegistrationConfirmation("to@example.com", "小明 陈")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "邮件服务未启用")
}

func TestGenerateConfirmationBody(t *testing.T) {
	s := NewEmailService(&config.EmailConfig{})

	body := s.generateConfirmationBody("小明 陈")
	assert.True(t, strings.Contains(body, "小明 陈"))
	assert.True(t, strings.Contains(body, "报名信息已登记成功"))
}

func TestSendTestEmail_Disabled(t *testing.T) {
	s := NewEmailService(&config.EmailConfig{Enabled: false})
	assert.Error(t, s.SendTestEmail("to@example.com"))
}
