package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/phimhub/internal/model"
)

func TestNormalizer_RejectsMissingIDAndSlug(t *testing.T) {
	n := NewNormalizer("https://phimimg.com")

	for _, raw := range []model.RawMovie{
		nil,
		{},
		{"name": "Chỉ có tên"},
		{"_id": "  ", "slug": ""},
	} {
		rec, err := n.Normalize(raw)
		assert.Nil(t, rec)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedRecord)

		var rr *RejectedRecord
		assert.True(t, errors.As(err, &rr))
	}
}

func TestNormalizer_DerivesSlugFromName(t *testing.T) {
	n := NewNormalizer("")

	rec, err := n.Normalize(model.RawMovie{"_id": "ABC123", "name": "Nhà Bà Nữ"})
	require.NoError(t, err)
	assert.Equal(t, "nha-ba-nu", rec.Slug)
	assert.Equal(t, "ABC123", rec.ID)

	rec, err = n.Normalize(model.RawMovie{"id": "ABC123"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", rec.Slug)
}

func TestNormalizer_FullRecord(t *testing.T) {
	n := NewNormalizer("https://phimimg.com/")
	raw := model.RawMovie{
		"_id":             "6f1a",
		"slug":            "dao-hai-tac",
		"name":            "  Đảo   Hải Tặc ",
		"origin_name":     "One Piece",
		"type":            "Hoathinh",
		"year":            "1999",
		"quality":         "FHD",
		"lang":            "Vietsub",
		"poster_url":      "upload/vod/one-piece-poster.jpg",
		"thumb_url":       "https://cdn.example/one-piece-thumb.jpg",
		"content":         "<p>Hành trình <b>Luffy</b></p><p>tìm kho báu</p>",
		"episode_current": "Tập 1100",
		"episode_total":   "1122",
		"actor":           []any{"Mayumi Tanaka", "Đang cập nhật", " "},
		"director":        "Eiichiro Oda, N/A",
		"chieurap":        false,
		"view":            float64(1234),
		"modified":        map[string]any{"time": "2024-06-01T10:00:00.000Z"},
		"tmdb":            map[string]any{"id": "37854", "type": "tv", "season": float64(1), "vote_average": 8.7, "vote_count": float64(4500)},
		"imdb":            map[string]any{"id": nil},
		"category": map[string]any{
			"1":  map[string]any{"id": "c2", "name": "Phiêu Lưu", "slug": "phieu-luu"},
			"0":  map[string]any{"id": "c1", "name": "Hành Động", "slug": "hanh-dong"},
			"2":  map[string]any{"name": "Hành Động"},
			"10": "bad",
		},
		"country":      []any{map[string]any{"name": "Nhật Bản"}, 42},
		"sub_docquyen": true,
	}

	rec, err := n.Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "Đảo Hải Tặc", rec.Name)
	assert.Equal(t, "hoathinh", rec.Type)
	require.NotNil(t, rec.Year)
	assert.Equal(t, 1999, *rec.Year)
	assert.Equal(t, "https://phimimg.com/upload/vod/one-piece-poster.jpg", rec.PosterURL)
	assert.Equal(t, "https://cdn.example/one-piece-thumb.jpg", rec.ThumbURL)
	assert.Equal(t, rec.ThumbURL, rec.BannerURL)
	assert.Equal(t, "Hành trình Luffy tìm kho báu", rec.Content)
	assert.Equal(t, []string{"Mayumi Tanaka"}, rec.Actors)
	assert.Equal(t, []string{"Eiichiro Oda"}, rec.Directors)
	assert.Equal(t, 1234, rec.View)
	assert.True(t, rec.UpstreamModifiedAt.Equal(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)))

	require.Len(t, rec.Categories, 3)
	assert.Equal(t, "hanh-dong", rec.Categories[0].Slug)
	assert.Equal(t, "phieu-luu", rec.Categories[1].Slug)
	assert.Equal(t, model.Taxon{Name: "bad", Slug: "bad"}, rec.Categories[2])

	require.Len(t, rec.Countries, 1)
	assert.Equal(t, "nhat-ban", rec.Countries[0].Slug)

	require.NotNil(t, rec.TMDB)
	assert.Equal(t, "37854", rec.TMDB.ID)
	require.NotNil(t, rec.TMDB.Season)
	assert.Equal(t, 1, *rec.TMDB.Season)
	assert.InDelta(t, 8.7, rec.TMDB.VoteAverage, 0.001)
	assert.Nil(t, rec.IMDB)

	assert.Equal(t, map[string]any{"sub_docquyen": true}, rec.Extra)
}

func TestNormalizer_BadOptionalFields(t *testing.T) {
	n := NewNormalizer("")
	rec, err := n.Normalize(model.RawMovie{
		"slug":     "x",
		"year":     "không rõ",
		"category": 12,
		"tmdb":     "oops",
		"modified": "garbage",
	})
	require.NoError(t, err)
	assert.Nil(t, rec.Year)
	assert.Empty(t, rec.Categories)
	assert.NotNil(t, rec.Categories)
	assert.Nil(t, rec.TMDB)
	assert.True(t, rec.UpstreamModifiedAt.IsZero())
	assert.Nil(t, rec.Extra)

	idOnly := []struct {
		name  string
		field string
		value any
	}{
		{"category object with only id", "category", map[string]any{"id": "x"}},
		{"category object with id and unknown key", "category", map[string]any{"id": "9a1f0c", "extra_flag": true}},
		{"country array of id-only objects", "country", []any{map[string]any{"id": "c1"}}},
		{"index-keyed map of id-only objects", "category", map[string]any{"0": map[string]any{"id": "c1"}}},
	}
	for _, tc := range idOnly {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := n.Normalize(model.RawMovie{"slug": "x", tc.field: tc.value})
			require.NoError(t, err)
			assert.Empty(t, rec.Categories)
			assert.Empty(t, rec.Countries)
		})
	}
}

func TestCoerceTaxa_SingleObjectIsOneEntry(t *testing.T) {
	taxa := coerceTaxa(map[string]any{"id": "c9", "name": "Hàn Quốc", "slug": "han-quoc", "extra": 1})
	require.Len(t, taxa, 1)
	assert.Equal(t, model.Taxon{ID: "c9", Name: "Hàn Quốc", Slug: "han-quoc"}, taxa[0])
}
