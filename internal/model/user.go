package model

import (
	"time"

	"github.com/lib/pq"
)

// MovieSnapshot 用户数据中冗余保存的影片信息，避免跨库关联查询
type MovieSnapshot struct {
	Name       string         `json:"name" db:"name"`
	PosterURL  string         `json:"poster_url" db:"poster_url"`
	Year       *int           `json:"year" db:"year"`
	Categories pq.StringArray `json:"categories" db:"categories" gorm:"type:text[]"`
}

// SnapshotOf 从目录记录生成快照
func SnapshotOf(m *MovieRecord) MovieSnapshot {
	if m == nil {
		return MovieSnapshot{}
	}
	cats := make(pq.StringArray, 0, len(m.Categories))
	for _, c := range m.Categories {
		cats = append(cats, c.Slug)
	}
	return MovieSnapshot{
		Name:       m.Name,
		PosterURL:  m.PosterURL,
		Year:       m.Year,
		Categories: cats,
	}
}

// Favorite 收藏
type Favorite struct {
	ID            int    `json:"id" db:"id"`
	UserID        int    `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_user_favorite"`
	MovieSlug     string `json:"movie_slug" db:"movie_slug" gorm:"uniqueIndex:idx_user_favorite"`
	MovieSnapshot `gorm:"embedded"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// WatchlistItem 待看列表
type WatchlistItem struct {
	ID            int    `json:"id" db:"id"`
	UserID        int    `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_user_watchlist"`
	MovieSlug     string `json:"movie_slug" db:"movie_slug" gorm:"uniqueIndex:idx_user_watchlist"`
	MovieSnapshot `gorm:"embedded"`
	Note          string    `json:"note" db:"note"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// WatchHistory 观影历史
type WatchHistory struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_user_history_episode"`
	MovieSlug string    `json:"movie_slug" db:"movie_slug" gorm:"uniqueIndex:idx_user_history_episode"`
	Episode   string    `json:"episode" db:"episode" gorm:"uniqueIndex:idx_user_history_episode"`
	Name      string    `json:"name" db:"name"`
	PosterURL string    `json:"poster_url" db:"poster_url"`
	Progress  int       `json:"progress" db:"progress"`
	LastTime  float64   `json:"last_time" db:"last_time"`
	Duration  float64   `json:"duration" db:"duration"`
	WatchedAt time.Time `json:"watched_at" db:"watched_at" gorm:"index"`
}

// Comment 影片评论
type Comment struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id" gorm:"index"`
	Username  string    `json:"username" db:"username"`
	MovieSlug string    `json:"movie_slug" db:"movie_slug" gorm:"index"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"index"`
}
