package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/cmns/internal/chain"
	"github.com/blues/cmns/internal/config"
	"github.com/blues/cmns/internal/database"
	"github.com/blues/cmns/internal/event"
	"github.com/blues/cmns/internal/gateway"
	"github.com/blues/cmns/internal/listener"
	"github.com/blues/cmns/internal/logger"
	"github.com/blues/cmns/internal/router"
	"github.com/blues/cmns/internal/scheduler"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if err := logger.Setup(cfg.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 加载合约元数据
	contractMeta, err := chain.NewContract(cfg.Chain.ContractAddress, cfg.Chain.ABIPath)
	if err != nil {
		log.Fatalf("Failed to load contract metadata: %v", err)
	}

	// 初始化合约网关
	gw, err := gateway.New(cfg.Chain, contractMeta)
	if err != nil {
		log.Fatalf("Failed to initialize contract gateway: %v", err)
	}
	defer gw.Close()

	// 初始化事件监听
	dispatcher := event.NewDispatcher(db, gw)
	defer dispatcher.Release()

	registry := listener.NewRegistry(contractMeta, dispatcher.Subscriptions())
	listenerSvc := listener.NewService(cfg.Chain, registry)
	if err := listenerSvc.Initialize(); err != nil {
		log.Fatalf("Failed to initialize listener service: %v", err)
	}
	if err := listenerSvc.StartEventListeners(); err != nil {
		logger.Error("Failed to start event listeners: %v", err)
	}
	defer listenerSvc.StopEventListeners()

	// 启动定时任务
	taskManager, err := scheduler.NewManager(db, gw, cfg)
	if err != nil {
		log.Fatalf("Failed to create task manager: %v", err)
	}
	taskManager.Start()
	defer taskManager.Stop()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由并启动服务器
	r := router.Setup(db, gw, listenerSvc)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}
	logger.Info("Server exited")
}
