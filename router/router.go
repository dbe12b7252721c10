package router

import (
	"campadmin/api"
	"campadmin/config"
	_ "campadmin/docs"
	"campadmin/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// CORS 中间件
	r.Use(CORSMiddleware())

	// 认证：共享管理密码换取管理凭证
	authHandler := api.NewAuthHandler(cfg)
	r.POST("/auth/login", authHandler.AdminLogin)

	// 成员登记入口（报名表单落库，无需登录）
	memberHandler := api.NewMemberHandler(cfg)
	r.POST("/members", memberHandler.Create)

	// 预算账本：全部操作需要管理凭证
	budgetHandler := api.NewBudgetHandler()
	paymentHandler := api.NewPaymentHandler()
	budget := r.Group("/budget")
	budget.Use(middleware.AdminAuth())
	{
		budget.GET("", budgetHandler.List)
		budget.POST("", budgetHandler.Create)
		budget.GET("/summary", budgetHandler.Summary)
		budget.GET("/:id", budgetHandler.Get)
		budget.PUT("/:id", budgetHandler.Update)
		budget.DELETE("/:id", budgetHandler.Delete)

		// 付款序列维护
		budget.POST("/:id/payments", paymentHandler.Add)
		budget.PUT("/:id/payments", paymentHandler.ReplaceAll)
		budget.PUT("/:id/payments/:paymentId", paymentHandler.Update)
		budget.DELETE("/:id/payments/:paymentId", paymentHandler.Delete)
	}

	// 成员名录管理（需要管理凭证）
	members := r.Group("/members")
	members.Use(middleware.AdminAuth())
	{
		members.GET("", memberHandler.List)
		members.GET("/:id", memberHandler.Get)
		members.PUT("/:id", memberHandler.Update)
		members.DELETE("/:id", memberHandler.Delete)
	}

	// 导出（需要管理凭证）
	exportHandler := api.NewExportHandler()
	export := r.Group("/export")
	export.Use(middleware.AdminAuth())
	{
		export.GET("/csv", exportHandler.ExportCSV)
		export.GET("/excel", exportHandler.ExportExcel)
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
