package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/user/phimhub/internal/config"
	"github.com/user/phimhub/internal/handler"
	"github.com/user/phimhub/internal/logger"
	"github.com/user/phimhub/internal/middleware"
	"github.com/user/phimhub/internal/repository"
	"github.com/user/phimhub/internal/router"
	"github.com/user/phimhub/internal/service"
	"github.com/user/phimhub/internal/utils"
)

func main() {
	// 加载环境变量
	envErr := godotenv.Load()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.LogFormat, cfg.LogLevel)
	if envErr != nil {
		logrus.Info("未找到 .env 文件，使用系统环境变量")
	}

	// 初始化数据库（用户数据）
	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("数据库连接失败: %v", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	// 初始化 MongoDB（影片目录）
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	mongoClient, mongoDB, err := repository.InitMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	cancel()
	if err != nil {
		logrus.Fatalf("MongoDB 连接失败: %v", err)
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	// 初始化仓库
	repos := repository.NewRepositories(db, mongoDB, cfg.MongoCollection)
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	if err := repos.Movie.EnsureIndexes(ctx); err != nil {
		logrus.Fatalf("MongoDB 索引创建失败: %v", err)
	}
	cancel()

	// 初始化缓存
	utils.InitCache()

	// 初始化服务
	catalog := service.NewCatalogService(repos.Movie, cfg.SearchCacheSize, cfg.SearchCacheTTL)
	syncSvc := service.NewSyncService(
		service.NewPhimAPIClient(cfg.PhimAPIBaseURL, cfg.PhimAPITimeout),
		service.NewNormalizer(cfg.PhimAPIImageBase),
		service.NewCatalogWriter(repos.Movie, service.NewClock(nil)),
		repos.Movie,
		service.SyncOptions{
			Interval:    cfg.SyncInterval,
			FullOnStart: cfg.SyncFullOnStart,
			FetchDetail: cfg.SyncFetchDetail,
			MaxPages:    cfg.SyncMaxPages,
			OnComplete:  catalog.OnSyncComplete,
		},
	)
	if cfg.SyncEnabled {
		syncSvc.Start()
		defer syncSvc.Stop()
	} else {
		logrus.Info("SYNC_ENABLED=false，定时同步已关闭，仍可通过管理接口手动触发")
	}

	// 启动定时清理任务
	cleanupSvc := service.NewCleanupService(repos.History, cfg.HistoryRetentionDays)
	cleanupSvc.Start()
	defer cleanupSvc.Stop()

	// 初始化 Gin
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	h := handler.NewHandler(repos, cfg, catalog, syncSvc)
	router.RegisterRoutes(r, h)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		logrus.Infof("服务器启动于 http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("正在关闭服务器...")

	// 5 秒超时上下文用于关闭过程
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("服务器强制关闭: %v", err)
	}

	logrus.Info("服务器已退出")
}
