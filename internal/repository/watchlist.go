package repository

import (
	"time"

	"github.com/user/phimhub/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WatchlistRepository struct {
	db *gorm.DB
}

func NewWatchlistRepository(db *gorm.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

func (r *WatchlistRepository) Upsert(item *model.WatchlistItem) error {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	item.UpdatedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "poster_url", "year", "categories", "note", "updated_at"}),
	}).Create(item).Error
}

func (r *WatchlistRepository) Remove(userID int, slug string) error {
	return r.db.Where("user_id = ? AND movie_slug = ?", userID, slug).Delete(&model.WatchlistItem{}).Error
}

func (r *WatchlistRepository) ListByUser(userID int, limit, offset int) ([]*model.WatchlistItem, error) {
	var items []*model.WatchlistItem
	err := r.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	return items, err
}

func (r *WatchlistRepository) CountByUser(userID int) (int, error) {
	var count int64
	err := r.db.Model(&model.WatchlistItem{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}

func (r *WatchlistRepository) Contains(userID int, slug string) (bool, error) {
	var count int64
	err := r.db.Model(&model.WatchlistItem{}).
		Where("user_id = ? AND movie_slug = ?", userID, slug).
		Count(&count).Error
	return count > 0, err
}
