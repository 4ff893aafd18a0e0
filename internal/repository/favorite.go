package repository

import (
	"time"

	"github.com/user/phimhub/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add 添加收藏（已存在则刷新影片快照）
func (r *FavoriteRepository) Add(f *model.Favorite) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "poster_url", "year", "categories"}),
	}).Create(f).Error
}

// Remove 取消收藏
func (r *FavoriteRepository) Remove(userID int, slug string) error {
	return r.db.Where("user_id = ? AND movie_slug = ?", userID, slug).Delete(&model.Favorite{}).Error
}

// IsFavorited 检查是否已收藏
func (r *FavoriteRepository) IsFavorited(userID int, slug string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Favorite{}).Where("user_id = ? AND movie_slug = ?", userID, slug).Count(&count).Error
	return count > 0, err
}

// ListByUser 获取用户收藏列表，category 非空时按分类过滤
func (r *FavoriteRepository) ListByUser(userID int, category string, limit, offset int) ([]*model.Favorite, error) {
	var favorites []*model.Favorite
	q := r.db.Where("user_id = ?", userID)
	if category != "" {
		q = q.Where("? = ANY(categories)", category)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&favorites).Error
	return favorites, err
}

// CountByUser 统计用户收藏数量
func (r *FavoriteRepository) CountByUser(userID int) (int, error) {
	var count int64
	err := r.db.Model(&model.Favorite{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}
