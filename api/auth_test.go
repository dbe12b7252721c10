package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"campadmin/config"
	"campadmin/database"
	"campadmin/middleware"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = gormDB
	return mock, func() {
		database.DB = oldDB
		sqlDB.Close()
	}
}

func setupAuthConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireTime: 24 * time.Hour},
		Admin:  config.AdminConfig{Password: "camp-admin-pass"},
	}
	config.GlobalConfig = cfg
	middleware.InitJWT(cfg)
	t.Cleanup(func() { config.GlobalConfig = nil })
	return cfg
}

func TestAuthHandler_AdminLogin(t *testing.T) {
	cfg := setupAuthConfig(t)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	h := NewAuthHandler(cfg)
	router.POST("/auth/login", h.AdminLogin)

	body := `{"password":"camp-admin-pass"}`
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])

	data := resp["data"].(map[string]interface{})
	token := data["token"].(string)
	assert.NotEmpty(t, token)

	// 签发的凭证可通过凭证闸门
	claims, err := middleware.ParseAdminToken(token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
}

func TestAuthHandler_AdminLogin_WrongPassword(t *testing.T) {
	cfg := setupAuthConfig(t)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/auth/login", NewAuthHandler(cfg).AdminLogin)

	body := `{"password":"wrong"}`
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "InvalidCredentials", resp["error"])
}

func TestAuthHandler_AdminLogin_MissingPassword(t *testing.T) {
	cfg := setupAuthConfig(t)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/auth/login", NewAuthHandler(cfg).AdminLogin)

	req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "InvalidInput", resp["error"])
	// 字段级错误列表
	assert.NotEmpty(t, resp["details"])
}

func TestAuthHandler_AdminLogin_BcryptHash(t *testing.T) {
	cfg := setupAuthConfig(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-pass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	// 配置了哈希时明文配置被忽略
	cfg.Admin.PasswordHash = string(hash)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auth/login", NewAuthHandler(cfg).AdminLogin)

	req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(`{"password":"hashed-pass"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)

	req2 := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(`{"password":"camp-admin-pass"}`))
	req2.Header.Set("Content-Type", "application/json")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)
	assert.Equal(t, 401, w2.Code)
}

func TestAuthHandler_AdminLogin_NoPasswordConfigured(t *testing.T) {
	cfg := setupAuthConfig(t)
	cfg.Admin.Password = ""

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auth/login", NewAuthHandler(cfg).AdminLogin)

	// 未配置管理密码时一律拒绝（空密码也不行）
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(`{"password":"anything"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, 401, w.Code)
}
