package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/user/phimhub/internal/model"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB 初始化 PostgreSQL 连接（用户数据）
func InitDB(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取连接池失败: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(&model.Favorite{}, &model.WatchlistItem{}, &model.WatchHistory{}, &model.Comment{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// InitMongo 初始化 MongoDB 连接（影片目录）
func InitMongo(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("无法连接 MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("MongoDB ping 失败: %w", err)
	}

	return client, client.Database(database), nil
}

// Repositories 仓库集合
type Repositories struct {
	DB        *gorm.DB
	Movie     *MovieRepository
	Favorite  *FavoriteRepository
	Watchlist *WatchlistRepository
	History   *HistoryRepository
	Comment   *CommentRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB, mongoDB *mongo.Database, movieCollection string) *Repositories {
	return &Repositories{
		DB:        db,
		Movie:     NewMovieRepository(mongoDB.Collection(movieCollection)),
		Favorite:  NewFavoriteRepository(db),
		Watchlist: NewWatchlistRepository(db),
		History:   NewHistoryRepository(db),
		Comment:   NewCommentRepository(db),
	}
}
