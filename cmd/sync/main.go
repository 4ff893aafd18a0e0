package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/user/phimhub/internal/config"
	"github.com/user/phimhub/internal/logger"
	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/repository"
	"github.com/user/phimhub/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	mode := flag.String("mode", "incremental", "sync mode: full or incremental")
	maxPages := flag.Int("max-pages", cfg.SyncMaxPages, "stop after N pages (0 = no limit)")
	detail := flag.Bool("detail", cfg.SyncFetchDetail, "fetch movie detail for every list item")
	flag.Parse()

	logger.Init(cfg.LogFormat, cfg.LogLevel)
	log := logger.New("sync")

	kind := model.SyncKind(*mode)
	if kind != model.SyncFull && kind != model.SyncIncremental {
		log.Fatalf("未知的同步模式: %s", *mode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	client, mongoDB, err := repository.InitMongo(connectCtx, cfg.MongoURI, cfg.MongoDB)
	cancel()
	if err != nil {
		log.Fatalf("MongoDB 连接失败: %v", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	movies := repository.NewMovieRepository(mongoDB.Collection(cfg.MongoCollection))
	if err := movies.EnsureIndexes(ctx); err != nil {
		log.Fatalf("MongoDB 索引创建失败: %v", err)
	}

	svc := service.NewSyncService(
		service.NewPhimAPIClient(cfg.PhimAPIBaseURL, cfg.PhimAPITimeout),
		service.NewNormalizer(cfg.PhimAPIImageBase),
		service.NewCatalogWriter(movies, service.NewClock(nil)),
		movies,
		service.SyncOptions{FetchDetail: *detail, MaxPages: *maxPages},
	)

	var report *model.SyncReport
	if kind == model.SyncFull {
		report, err = svc.RunFull(ctx)
	} else {
		report, err = svc.RunIncremental(ctx)
	}

	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	}
	if err != nil {
		log.WithFields(logrus.Fields{"kind": kind}).WithError(err).Error("同步失败")
		os.Exit(1)
	}
}
