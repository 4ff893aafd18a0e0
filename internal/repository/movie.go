package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/user/phimhub/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MovieRepository 影片目录（MongoDB 集合，slug 唯一）
type MovieRepository struct {
	coll *mongo.Collection
}

func NewMovieRepository(coll *mongo.Collection) *MovieRepository {
	return &MovieRepository{coll: coll}
}

// EnsureIndexes 创建 slug 唯一索引及查询用的二级索引
func (r *MovieRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, movieIndexes())
	if err != nil {
		return fmt.Errorf("创建索引失败: %w", err)
	}
	return nil
}

func movieIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_slug")},
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName("idx_name")},
		{Keys: bson.D{{Key: "type", Value: 1}}, Options: options.Index().SetName("idx_type")},
		{Keys: bson.D{{Key: "year", Value: 1}}, Options: options.Index().SetName("idx_year")},
		{Keys: bson.D{{Key: "upstream_modified_at", Value: -1}}, Options: options.Index().SetName("idx_upstream_modified_at")},
		{Keys: bson.D{{Key: "categories.slug", Value: 1}}, Options: options.Index().SetName("idx_category_slug")},
		{Keys: bson.D{{Key: "countries.slug", Value: 1}}, Options: options.Index().SetName("idx_country_slug")},
	}
}

// upsertDocument 构造 filter 与 update：覆盖除 created_at 外的所有字段
func upsertDocument(rec *model.MovieRecord) (bson.D, bson.D, error) {
	raw, err := bson.Marshal(rec)
	if err != nil {
		return nil, nil, fmt.Errorf("序列化 %s 失败: %w", rec.Slug, err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, nil, fmt.Errorf("序列化 %s 失败: %w", rec.Slug, err)
	}
	delete(fields, "_id")
	delete(fields, "created_at")

	// omitempty 字段缺失时显式置空，避免残留上一次同步的值
	for _, key := range []string{"tmdb", "imdb", "extra"} {
		if _, ok := fields[key]; !ok {
			fields[key] = nil
		}
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = rec.LastSyncedAt
	}

	filter := bson.D{{Key: "slug", Value: rec.Slug}}
	update := bson.D{
		{Key: "$set", Value: fields},
		{Key: "$setOnInsert", Value: bson.D{{Key: "created_at", Value: createdAt}}},
	}
	return filter, update, nil
}

// UpsertOne 插入或更新单条记录
func (r *MovieRepository) UpsertOne(ctx context.Context, rec *model.MovieRecord) (model.UpsertOutcome, error) {
	filter, update, err := upsertDocument(rec)
	if err != nil {
		return 0, err
	}
	res, err := r.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return 0, err
	}
	if res.UpsertedCount > 0 {
		return model.UpsertInserted, nil
	}
	return model.UpsertUpdated, nil
}

// UpsertMany 无序批量写入，单条失败只记入 FailedSlugs
func (r *MovieRepository) UpsertMany(ctx context.Context, recs []*model.MovieRecord) (model.UpsertStats, error) {
	var stats model.UpsertStats
	if len(recs) == 0 {
		return stats, nil
	}

	models := make([]mongo.WriteModel, 0, len(recs))
	slugs := make([]string, 0, len(recs))
	for _, rec := range recs {
		filter, update, err := upsertDocument(rec)
		if err != nil {
			stats.Failed++
			stats.FailedSlugs = append(stats.FailedSlugs, rec.Slug)
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update).SetUpsert(true))
		slugs = append(slugs, rec.Slug)
	}
	if len(models) == 0 {
		return stats, nil
	}

	res, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	written, err := bulkWriteStats(slugs, res, err)
	if err != nil {
		return stats, err
	}
	stats.Add(written)
	return stats, nil
}

// bulkWriteStats 把无序 BulkWrite 的结果映射为统计。
// 只有单条写入错误时视为部分成功；写关注错误或其他错误整体返回。
func bulkWriteStats(slugs []string, res *mongo.BulkWriteResult, err error) (model.UpsertStats, error) {
	var stats model.UpsertStats
	failed := 0
	if err != nil {
		var bwe mongo.BulkWriteException
		if !errors.As(err, &bwe) || bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
			return stats, err
		}
		seen := make(map[int]bool, len(bwe.WriteErrors))
		for _, we := range bwe.WriteErrors {
			if we.Index < 0 || we.Index >= len(slugs) {
				return stats, err
			}
			if seen[we.Index] {
				continue
			}
			seen[we.Index] = true
			stats.FailedSlugs = append(stats.FailedSlugs, slugs[we.Index])
			failed++
		}
	}

	ok := len(slugs) - failed
	stats.Failed = failed
	if res != nil {
		stats.Inserted = int(res.UpsertedCount)
	}
	if stats.Inserted > ok {
		stats.Inserted = ok
	}
	stats.Updated = ok - stats.Inserted
	return stats, nil
}

// FindBySlug 根据 slug 查找，不存在返回 nil, nil
func (r *MovieRepository) FindBySlug(ctx context.Context, slug string) (*model.MovieRecord, error) {
	var movie model.MovieRecord
	err := r.coll.FindOne(ctx, bson.D{{Key: "slug", Value: slug}}).Decode(&movie)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &movie, nil
}

// FindBySlugs 批量查找（用于用户收藏等列表补全）
func (r *MovieRepository) FindBySlugs(ctx context.Context, slugs []string) ([]*model.MovieRecord, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "slug", Value: bson.D{{Key: "$in", Value: slugs}}}})
	if err != nil {
		return nil, err
	}
	var movies []*model.MovieRecord
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// ListNew 按上游更新时间倒序分页
func (r *MovieRepository) ListNew(ctx context.Context, page, limit int) ([]*model.MovieRecord, int64, error) {
	return r.find(ctx, bson.D{}, page, limit)
}

// Search 关键词 + 过滤条件搜索
func (r *MovieRepository) Search(ctx context.Context, q model.MovieQuery) ([]*model.MovieRecord, int64, error) {
	return r.find(ctx, buildSearchFilter(q), q.Page, q.Limit)
}

func (r *MovieRepository) find(ctx context.Context, filter bson.D, page, limit int) ([]*model.MovieRecord, int64, error) {
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	skip, ok := pageSkip(page, limit)
	if !ok {
		return []*model.MovieRecord{}, total, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "upstream_modified_at", Value: -1}, {Key: "slug", Value: 1}}).
		SetSkip(skip).
		SetLimit(int64(limit)).
		SetProjection(bson.D{{Key: "extra", Value: 0}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	movies := []*model.MovieRecord{}
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, 0, err
	}
	return movies, total, nil
}

// pageSkip 计算 skip，页码或 limit 非法、或乘积溢出时返回 false
func pageSkip(page, limit int) (int64, bool) {
	if page < 1 || limit < 1 {
		return 0, false
	}
	if int64(page-1) > math.MaxInt64/int64(limit) {
		return 0, false
	}
	return int64(page-1) * int64(limit), true
}

// buildSearchFilter 关键词匹配 name / origin_name / slug（不区分大小写）
func buildSearchFilter(q model.MovieQuery) bson.D {
	filter := bson.D{}
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		pattern := bson.D{{Key: "$regex", Value: regexp.QuoteMeta(kw)}, {Key: "$options", Value: "i"}}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: pattern}},
			bson.D{{Key: "origin_name", Value: pattern}},
			bson.D{{Key: "slug", Value: pattern}},
		}})
	}
	if q.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: q.Type})
	}
	if q.Category != "" {
		filter = append(filter, bson.E{Key: "categories.slug", Value: q.Category})
	}
	if q.Country != "" {
		filter = append(filter, bson.E{Key: "countries.slug", Value: q.Country})
	}
	if q.Year > 0 {
		filter = append(filter, bson.E{Key: "year", Value: q.Year})
	}
	return filter
}

// Watermark 本地最大的 upstream_modified_at
func (r *MovieRepository) Watermark(ctx context.Context) (time.Time, error) {
	return r.maxTime(ctx, "upstream_modified_at")
}

// LastSyncedAt 最近一次写入时间
func (r *MovieRepository) LastSyncedAt(ctx context.Context) (time.Time, error) {
	return r.maxTime(ctx, "last_synced_at")
}

func (r *MovieRepository) maxTime(ctx context.Context, field string) (time.Time, error) {
	var doc bson.M
	opts := options.FindOne().
		SetSort(bson.D{{Key: field, Value: -1}}).
		SetProjection(bson.D{{Key: field, Value: 1}})
	err := r.coll.FindOne(ctx, bson.D{}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	switch v := doc[field].(type) {
	case bson.DateTime:
		return v.Time().UTC(), nil
	case time.Time:
		return v.UTC(), nil
	default:
		return time.Time{}, nil
	}
}

// Count 记录总数
func (r *MovieRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{})
}

// CountByType 按类型统计
func (r *MovieRepository) CountByType(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$type"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Type  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Type] = row.Count
	}
	return result, nil
}
