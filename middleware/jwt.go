package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"campadmin/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken 凭证无效、过期或被篡改
	ErrInvalidToken = errors.New("无效或已过期的管理凭证")

	jwtSecret []byte
)

// AdminClaims 管理凭证声明
// 整个授权模型只有一个布尔管理员声明加签发/过期时间，
// 没有按人区分的身份、角色或权限范围
type AdminClaims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

// InitJWT 初始化 JWT 签名密钥
func InitJWT(cfg *config.Config) {
	jwtSecret = []byte(cfg.JWT.Secret)
}

// GenerateAdminToken 签发管理凭证
// 无状态：不落库、无吊销列表，凭证泄露后在自然过期前一直有效
func GenerateAdminToken(expire time.Duration) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		IsAdmin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", fmt.Errorf("签发管理凭证失败: %w", err)
	}
	return signed, nil
}

// ParseAdminToken 校验并解析管理凭证
// 签名有效、未过期且 is_admin 为 true 才返回声明，其余一律返回 ErrInvalidToken
func ParseAdminToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非预期的签名算法: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || !claims.IsAdmin {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AdminAuth 管理接口认证中间件
// 从 Authorization: Bearer <token> 中提取并校验管理凭证，
// 缺失或格式错误返回 Unauthorized，校验失败返回 InvalidToken，均为 401
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Unauthorized",
				"message": "请先登录",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Unauthorized",
				"message": "认证头格式错误，应为: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := ParseAdminToken(strings.TrimSpace(parts[1]))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "InvalidToken",
				"message": "管理凭证无效或已过期，请重新登录",
			})
			c.Abort()
			return
		}

		c.Set("isAdmin", claims.IsAdmin)
		c.Next()
	}
}

// IsAdmin 当前请求是否通过了管理认证
func IsAdmin(c *gin.Context) bool {
	v, exists := c.Get("isAdmin")
	if !exists {
		return false
	}
	isAdmin, ok := v.(bool)
	return ok && isAdmin
}
