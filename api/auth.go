package api

import (
	"time"

	"campadmin/config"
	"campadmin/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler 认证处理器
// 凭证闸门：用一个共享管理密码换取有时限的签名管理凭证
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// AdminLoginRequest 管理员登录请求
type AdminLoginRequest struct {
	Password string `json:"password" binding:"required" example:"admin123"`
}

// AdminLoginResponse 管理员登录响应
type AdminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminLogin 管理员登录
// @Summary 管理员登录
// @Description 使用共享管理密码换取有时限的管理凭证。没有锁定或限流机制，信任模型是小规模运营团队。
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body AdminLoginRequest true "登录信息"
// @Success 200 {object} Response{data=AdminLoginResponse} "登录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "密码错误"
// @Router /auth/login [post]
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if details := BindingDetails(err); details != nil {
			BadRequestWithDetails(c, "参数错误", details)
			return
		}
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if !h.verifyPassword(req.Password) {
		Unauthorized(c, ErrCodeInvalidCredentials, "管理密码错误")
		return
	}

	token, err := middleware.GenerateAdminToken(h.cfg.JWT.ExpireTime)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "签发管理凭证失败"))
		return
	}

	Success(c, AdminLoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.cfg.JWT.ExpireTime),
	})
}

// verifyPassword 校验管理密码
// 配置了 bcrypt 哈希时优先使用哈希校验，否则与配置的明文直接比较；
// 两者都未配置时一律拒绝
func (h *AuthHandler) verifyPassword(password string) bool {
	if h.cfg.Admin.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(h.cfg.Admin.PasswordHash), []byte(password)) == nil
	}
	if h.cfg.Admin.Password == "" {
		return false
	}
	return password == h.cfg.Admin.Password
}
