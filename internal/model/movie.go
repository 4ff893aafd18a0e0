package model

import (
	"time"
)

// 影片类型（与上游 phimapi 的 type 字段一致）
const (
	MovieTypeSingle  = "single"
	MovieTypeSeries  = "series"
	MovieTypeCartoon = "hoathinh"
	MovieTypeTVShows = "tvshows"
)

// MovieRecord 本地影片目录记录（以 slug 唯一）
type MovieRecord struct {
	ID         string `json:"id" bson:"upstream_id" validate:"required_without=Slug"`
	Slug       string `json:"slug" bson:"slug" validate:"required_without=ID"`
	Name       string `json:"name" bson:"name"`
	OriginName string `json:"origin_name" bson:"origin_name"`
	Type       string `json:"type" bson:"type"`
	Year       *int   `json:"year" bson:"year"`
	Quality    string `json:"quality" bson:"quality"`
	Lang       string `json:"lang" bson:"lang"`

	PosterURL string `json:"poster_url" bson:"poster_url"`
	ThumbURL  string `json:"thumb_url" bson:"thumb_url"`
	BannerURL string `json:"banner_url" bson:"banner_url"`

	Categories []Taxon `json:"categories" bson:"categories"`
	Countries  []Taxon `json:"countries" bson:"countries"`

	TMDB *TMDBRef `json:"tmdb,omitempty" bson:"tmdb,omitempty"`
	IMDB *IMDBRef `json:"imdb,omitempty" bson:"imdb,omitempty"`

	Content        string   `json:"content" bson:"content"`
	Status         string   `json:"status" bson:"status"`
	EpisodeCurrent string   `json:"episode_current" bson:"episode_current"`
	EpisodeTotal   string   `json:"episode_total" bson:"episode_total"`
	Time           string   `json:"time" bson:"time"`
	TrailerURL     string   `json:"trailer_url" bson:"trailer_url"`
	Actors         []string `json:"actors" bson:"actors"`
	Directors      []string `json:"directors" bson:"directors"`
	Chieurap       bool     `json:"chieurap" bson:"chieurap"`
	View           int      `json:"view" bson:"view"`

	// Extra 未映射的上游字段原样保存
	Extra map[string]any `json:"extra,omitempty" bson:"extra,omitempty"`

	LastSyncedAt       time.Time `json:"last_synced_at" bson:"last_synced_at"`
	UpstreamModifiedAt time.Time `json:"upstream_modified_at" bson:"upstream_modified_at"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at,omitempty"`
}

// Taxon 分类 / 国家
type Taxon struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
	Slug string `json:"slug" bson:"slug"`
}

// TMDBRef TMDB 关联信息
type TMDBRef struct {
	ID          string  `json:"id" bson:"id"`
	Type        string  `json:"type" bson:"type"`
	Season      *int    `json:"season,omitempty" bson:"season,omitempty"`
	VoteAverage float64 `json:"vote_average" bson:"vote_average"`
	VoteCount   int     `json:"vote_count" bson:"vote_count"`
}

// IMDBRef IMDb 关联信息
type IMDBRef struct {
	ID string `json:"id" bson:"id"`
}

// Key 返回记录的唯一键（slug）
func (m *MovieRecord) Key() string {
	return m.Slug
}

// MovieQuery 本地目录查询条件
type MovieQuery struct {
	Keyword  string
	Type     string
	Category string
	Country  string
	Year     int
	Page     int
	Limit    int
}

// MovieStats 目录统计
type MovieStats struct {
	Total     int64            `json:"total"`
	ByType    map[string]int64 `json:"by_type"`
	Watermark *time.Time       `json:"watermark"`
	LastSync  *time.Time       `json:"last_sync"`
}
