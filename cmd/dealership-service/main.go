package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AutoLedger/AutoLedger/internal/common/config"
	"github.com/AutoLedger/AutoLedger/internal/common/logger"
	"github.com/AutoLedger/AutoLedger/internal/common/middleware"
	"github.com/AutoLedger/AutoLedger/internal/common/server"
	"github.com/AutoLedger/AutoLedger/internal/common/tracing"
	"github.com/AutoLedger/AutoLedger/internal/dealership"
	"github.com/AutoLedger/AutoLedger/internal/user"
	"github.com/AutoLedger/AutoLedger/internal/vin"
	"github.com/AutoLedger/AutoLedger/internal/xmldoc"
)

var (
	configPath = flag.String("config", "configs/dealership-service.json", "配置文件路径")
)

func main() {
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Backend, cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
	tracer, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}
	_ = tracer

	// 文档持久化模式
	mode, err := xmldoc.ParseDurability(cfg.Store.Durability)
	if err != nil {
		log.Fatalf("invalid durability mode: %v", err)
	}

	// 库存 / 销售台账 / 用户文档
	store := dealership.NewStore(cfg.Store.InventoryPath(), mode)
	ledger := dealership.NewLedger(cfg.Store.SalesPath(), mode)
	svc := dealership.NewService(store, ledger, log)

	users, err := user.NewStore(cfg.Store.UsersPath(), mode, cfg.Auth.BootstrapPassword)
	if err != nil {
		log.Fatalf("failed to init user store: %v", err)
	}

	// VIN 解码客户端（带熔断）
	breaker := middleware.NewCircuitBreaker(
		"vin-decode",
		cfg.VIN.BreakerMaxFailures,
		time.Duration(cfg.VIN.BreakerResetSeconds)*time.Second,
	)
	vinClient := vin.NewClient(
		cfg.VIN.BaseURL,
		time.Duration(cfg.VIN.TimeoutSeconds)*time.Second,
		breaker,
		log,
	)

	// 启动统一的 HTTP 服务模板
	if err := server.RunHTTPServer(cfg, log, func(r *gin.Engine) error {
		user.NewHandler(users, cfg.Auth, log).Register(r)
		dealership.NewHandler(svc, store.Path(), ledger.Path(), cfg.Auth, log).Register(r)
		vin.NewHandler(vinClient, cfg.Auth, log).Register(r)
		return nil
	}); err != nil {
		log.Fatalf("dealership-service exited with error: %v", err)
	}
}
