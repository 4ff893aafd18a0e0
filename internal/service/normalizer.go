package service

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/utils"
)

// knownFields 已映射到 MovieRecord 的上游字段，其余进入 Extra
var knownFields = map[string]bool{
	"_id": true, "id": true, "slug": true, "name": true, "origin_name": true,
	"type": true, "year": true, "quality": true, "lang": true,
	"poster_url": true, "thumb_url": true, "banner_url": true,
	"category": true, "country": true, "tmdb": true, "imdb": true,
	"modified": true, "created": true, "content": true, "status": true,
	"episode_current": true, "episode_total": true, "time": true,
	"trailer_url": true, "actor": true, "director": true,
	"chieurap": true, "view": true,
}

// Normalizer 将上游原始数据转换为本地记录
type Normalizer struct {
	imageBase string
	validate  *validator.Validate
}

// NewNormalizer imageBase 用于补全相对图片路径
func NewNormalizer(imageBase string) *Normalizer {
	return &Normalizer{
		imageBase: strings.TrimRight(imageBase, "/"),
		validate:  validator.New(),
	}
}

// Normalize 归一化单条记录
// 缺少 id 与 slug 的记录返回 *RejectedRecord；分类/国家中的坏数据直接丢弃
func (n *Normalizer) Normalize(raw model.RawMovie) (*model.MovieRecord, error) {
	if raw == nil {
		return nil, &RejectedRecord{Reason: "empty payload"}
	}

	id := strings.TrimSpace(raw.String("_id"))
	if id == "" {
		id = strings.TrimSpace(raw.String("id"))
	}
	name := utils.CollapseSpaces(raw.String("name"))

	rec := &model.MovieRecord{
		ID:                 id,
		Slug:               raw.Slug(),
		Name:               name,
		OriginName:         utils.CollapseSpaces(raw.String("origin_name")),
		Type:               strings.ToLower(strings.TrimSpace(raw.String("type"))),
		Year:               parseYear(raw["year"]),
		Quality:            strings.TrimSpace(raw.String("quality")),
		Lang:               strings.TrimSpace(raw.String("lang")),
		PosterURL:          n.imageURL(raw.String("poster_url")),
		ThumbURL:           n.imageURL(raw.String("thumb_url")),
		BannerURL:          n.imageURL(raw.String("banner_url")),
		Categories:         coerceTaxa(raw["category"]),
		Countries:          coerceTaxa(raw["country"]),
		TMDB:               coerceTMDB(raw["tmdb"]),
		IMDB:               coerceIMDB(raw["imdb"]),
		Content:            utils.StripHTML(raw.String("content")),
		Status:             strings.TrimSpace(raw.String("status")),
		EpisodeCurrent:     strings.TrimSpace(raw.String("episode_current")),
		EpisodeTotal:       strings.TrimSpace(raw.String("episode_total")),
		Time:               strings.TrimSpace(raw.String("time")),
		TrailerURL:         strings.TrimSpace(raw.String("trailer_url")),
		Actors:             coerceNames(raw["actor"]),
		Directors:          coerceNames(raw["director"]),
		Chieurap:           coerceBool(raw["chieurap"]),
		View:               coerceInt(raw["view"]),
		UpstreamModifiedAt: raw.ModifiedAt(),
	}
	if rec.BannerURL == "" {
		rec.BannerURL = rec.ThumbURL
	}

	// 只有 id 没有 slug 时，用名称生成 slug，名称也缺失则退回 id
	if rec.Slug == "" && rec.ID != "" {
		if rec.Slug = utils.Slugify(name); rec.Slug == "" {
			rec.Slug = strings.ToLower(rec.ID)
		}
	}

	if err := n.validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, &RejectedRecord{Slug: rec.Slug, Reason: "missing both id and slug"}
		}
		return nil, &RejectedRecord{Slug: rec.Slug, Reason: err.Error()}
	}

	for k, v := range raw {
		if knownFields[k] {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]any)
		}
		rec.Extra[k] = v
	}

	return rec, nil
}

// imageURL 补全相对路径
func (n *Normalizer) imageURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "//") {
		return u
	}
	if n.imageBase == "" {
		return u
	}
	return n.imageBase + "/" + strings.TrimLeft(u, "/")
}

// parseYear 年份解析失败返回 nil
func parseYear(v any) *int {
	var year int
	switch val := v.(type) {
	case float64:
		year = int(val)
	case int:
		year = val
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil
		}
		year = n
	default:
		return nil
	}
	if year <= 0 {
		return nil
	}
	return &year
}

// coerceTaxa 兼容 数组对象 / 字符串数组 / 以下标为键的对象 / 单个对象
func coerceTaxa(v any) []model.Taxon {
	var entries []any
	switch val := v.(type) {
	case []any:
		entries = val
	case map[string]any:
		// 只有键全部是数字下标时才按 {"0": {...}, "1": {...}} 展开，其余视为单个对象
		if !isIndexKeyed(val) {
			entries = []any{val}
			break
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sortIndexKeys(keys)
		for _, k := range keys {
			entries = append(entries, val[k])
		}
	case string:
		for _, part := range strings.Split(val, ",") {
			entries = append(entries, part)
		}
	default:
		return []model.Taxon{}
	}

	taxa := make([]model.Taxon, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		t, ok := coerceTaxon(e)
		if !ok || seen[t.Slug] {
			continue
		}
		seen[t.Slug] = true
		taxa = append(taxa, t)
	}
	return taxa
}

func coerceTaxon(e any) (model.Taxon, bool) {
	var t model.Taxon
	switch val := e.(type) {
	case map[string]any:
		raw := model.RawMovie(val)
		t.ID = strings.TrimSpace(raw.String("id"))
		if t.ID == "" {
			t.ID = strings.TrimSpace(raw.String("_id"))
		}
		t.Name = utils.CollapseSpaces(raw.String("name"))
		t.Slug = strings.TrimSpace(raw.String("slug"))
		// 只有 id 的条目无法展示也无法检索，丢弃
		if t.Name == "" && t.Slug == "" {
			return t, false
		}
	case string:
		t.Name = utils.CollapseSpaces(val)
	default:
		return t, false
	}
	if t.Slug == "" {
		t.Slug = utils.Slugify(t.Name)
	}
	if t.Name == "" && t.Slug == "" {
		return t, false
	}
	return t, true
}

func isIndexKeyed(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if _, err := strconv.Atoi(k); err != nil {
			return false
		}
	}
	return true
}

// sortIndexKeys 数字键按数值排序，其余按字典序
func sortIndexKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
}

func coerceTMDB(v any) *model.TMDBRef {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	raw := model.RawMovie(m)
	ref := &model.TMDBRef{
		ID:          strings.TrimSpace(raw.String("id")),
		Type:        strings.TrimSpace(raw.String("type")),
		VoteAverage: coerceFloat(m["vote_average"]),
		VoteCount:   coerceInt(m["vote_count"]),
	}
	if season := coerceInt(m["season"]); season > 0 {
		ref.Season = &season
	}
	if ref.ID == "" && ref.VoteAverage == 0 && ref.VoteCount == 0 {
		return nil
	}
	return ref
}

func coerceIMDB(v any) *model.IMDBRef {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	id := strings.TrimSpace(model.RawMovie(m).String("id"))
	if id == "" {
		return nil
	}
	return &model.IMDBRef{ID: id}
}

// coerceNames 演员/导演，丢弃 "Đang cập nhật" 之类的占位值
func coerceNames(v any) []string {
	var parts []string
	switch val := v.(type) {
	case []any:
		for _, e := range val {
			if s, ok := e.(string); ok {
				parts = append(parts, s)
			}
		}
	case string:
		parts = strings.Split(val, ",")
	}

	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = utils.CollapseSpaces(p)
		if utils.IsPlaceholder(p) {
			continue
		}
		names = append(names, p)
	}
	return names
}

func coerceInt(v any) int {
	return int(coerceFloat(v))
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(val))
		return b
	default:
		return false
	}
}
