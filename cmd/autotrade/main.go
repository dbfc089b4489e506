package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitfantasy/autotrade/internal/config"
	"github.com/bitfantasy/autotrade/internal/market/entity"
	"github.com/bitfantasy/autotrade/internal/market/handler"
	"github.com/bitfantasy/autotrade/internal/market/repository"
	"github.com/bitfantasy/autotrade/internal/market/service"
	"github.com/bitfantasy/autotrade/internal/market/sse"
	"github.com/bitfantasy/autotrade/internal/middleware"
	"github.com/bitfantasy/autotrade/internal/shared/llm"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting autotrade service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Buyer{},
		&entity.Vendor{},
		&entity.ProcurementRequest{},
		&entity.Quote{},
		&entity.NegotiationMessage{},
		&entity.Order{},
		&entity.ActivityLog{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}

	// jsonb品类匹配走GIN索引
	db.Exec("CREATE INDEX IF NOT EXISTS idx_mkt_vendors_categories ON mkt_vendors USING GIN (categories)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_mkt_negotiation_messages_quote_created ON mkt_negotiation_messages(quote_id, created_at)")

	// 初始化Redis（仪表盘统计缓存，连不上时退化为直查）
	rdb := initRedis(cfg.Redis)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, dashboard cache disabled", zap.Error(err))
		rdb = nil
	}

	// Gemini客户端，未配置API key时谈判走兜底文案
	var generator service.TextGenerator
	if cfg.Gemini.APIKey != "" {
		opts := []llm.Option{}
		if cfg.Gemini.Model != "" {
			opts = append(opts, llm.WithModel(cfg.Gemini.Model))
		}
		generator = llm.NewClient(cfg.Gemini.APIKey, opts...)
	} else {
		zapLogger.Warn("GEMINI_API_KEY not set, AI replies will use canned fallbacks")
	}

	sse.GlobalHub.SetLogger(zapLogger)

	// 仓库与服务
	repos := repository.NewRepositories(db)
	directorySvc := service.NewDirectoryService(repos.Buyer, repos.Vendor)
	quoteSvc := service.NewQuoteService(repos.Quote, repos.Request, repos.Negotiation, repos.ActivityLog, db)
	procurementSvc := service.NewProcurementService(repos.Request, repos.Quote, repos.Order, repos.ActivityLog, db)
	matchingSvc := service.NewMatchingService(repos.Request, repos.Vendor, quoteSvc, generator, zapLogger)
	negotiationSvc := service.NewNegotiationService(repos.Quote, repos.Request, repos.Vendor, quoteSvc, generator, zapLogger)
	dashboardSvc := service.NewDashboardService(repos.Request, repos.Order, db, rdb, zapLogger)
	authSvc := service.NewAuthService(repos.Buyer, cfg.JWT.Secret, cfg.JWT.AccessTokenExpire)

	handlers := handler.NewHandlers(directorySvc, procurementSvc, quoteSvc, matchingSvc, negotiationSvc, dashboardSvc, authSvc, zapLogger)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // Disable for SSE long-lived connections
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// 演示令牌签发（无需登录）
	r.POST("/api/auth/token", h.Auth.IssueToken)

	// SSE 实时推送（需要认证，支持 query param token）
	sseGroup := r.Group("/api/sse")
	sseGroup.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		sseGroup.GET("/events", h.SSE.Stream)
	}

	// 需要认证的接口
	api := r.Group("/api")
	api.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		buyers := api.Group("/buyers")
		{
			buyers.GET("", h.Directory.ListBuyers)
			buyers.POST("", h.Directory.CreateBuyer)
			buyers.GET("/:id", h.Directory.GetBuyer)
		}

		vendors := api.Group("/vendors")
		{
			vendors.GET("", h.Directory.ListVendors)
			vendors.POST("", h.Directory.CreateVendor)
			vendors.GET("/:id", h.Directory.GetVendor)
		}

		requests := api.Group("/requests")
		{
			requests.GET("", h.Request.List)
			requests.POST("", h.Request.Create)
			requests.GET("/:id", h.Request.Get)
			requests.DELETE("/:id", h.Request.Cancel)
		}

		quotes := api.Group("/quotes")
		{
			quotes.GET("", h.Quote.List)
			quotes.POST("", h.Quote.Create)
			quotes.GET("/:id", h.Quote.Get)
			quotes.POST("/:id/accept", h.Quote.Accept)
			quotes.POST("/:id/reject", h.Quote.Reject)
		}

		negotiations := api.Group("/negotiations")
		{
			negotiations.GET("/:quoteId", h.Quote.ListNegotiations)
			negotiations.POST("", h.Quote.CreateNegotiation)
		}

		orders := api.Group("/orders")
		{
			orders.GET("", h.Order.List)
			orders.POST("", h.Order.Create)
			orders.GET("/export", h.Order.Export)
			orders.GET("/:id", h.Order.Get)
			orders.PATCH("/:id/status", h.Order.UpdateStatus)
		}

		ai := api.Group("/ai")
		{
			ai.POST("/match-vendors/:requestId", h.AI.MatchVendors)
			ai.POST("/negotiate/:quoteId", h.AI.Negotiate)
		}

		api.GET("/dashboard/stats", h.Dashboard.Stats)
	}
}
