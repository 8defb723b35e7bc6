package router

import (
	"github.com/blues/cmns/internal/gateway"
	"github.com/blues/cmns/internal/handler"
	"github.com/blues/cmns/internal/listener"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, gw *gateway.Gateway, listenerSvc *listener.Service) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "membership-notification-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 通知相关路由
		notificationHandler := handler.NewNotificationHandler(db)
		notifications := v1.Group("/notifications")
		{
			notifications.GET("/:userId", notificationHandler.GetNotifications)
			notifications.POST("/:id/read", notificationHandler.MarkAsRead)
			notifications.POST("/read-all", notificationHandler.MarkAllAsRead)
		}

		// 交易与佣金记录路由
		transactionHandler := handler.NewTransactionHandler(db)
		transactions := v1.Group("/transactions")
		{
			transactions.GET("/wallet/:address", transactionHandler.GetWalletTransactions)
			transactions.GET("/user/:userId", transactionHandler.GetUserTransactions)
		}
		v1.GET("/referrals/:address", transactionHandler.GetWalletReferrals)

		// 计划快照路由
		planHandler := handler.NewPlanHandler(db)
		plans := v1.Group("/plans")
		{
			plans.GET("", planHandler.GetPlans)
			plans.GET("/:id", planHandler.GetPlan)
		}

		// 链上读取路由
		contractHandler := handler.NewContractHandler(gw)
		contract := v1.Group("/contract")
		{
			contract.GET("/status", contractHandler.GetContractStatus)
			contract.GET("/stats", contractHandler.GetSystemStats)
			contract.GET("/balance", contractHandler.ValidateBalance)
			contract.GET("/plans", contractHandler.GetChainPlans)
			contract.GET("/members/:address", contractHandler.GetMember)
			contract.GET("/members/:address/referral-chain", contractHandler.GetReferralChain)
		}

		// 监听服务运维路由
		listenerHandler := handler.NewListenerHandler(listenerSvc)
		listenerGroup := v1.Group("/listener")
		{
			listenerGroup.GET("/status", listenerHandler.GetStatus)
			listenerGroup.GET("/today-stats", listenerHandler.GetTodayStats)
			listenerGroup.POST("/check", listenerHandler.CheckConnection)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
