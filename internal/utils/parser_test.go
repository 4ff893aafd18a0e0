package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hành Động":             "hanh-dong",
		"Đài Loan":              "dai-loan",
		"  Phim Chiếu Rạp  ":    "phim-chieu-rap",
		"Khoa Học & Viễn Tưởng": "khoa-hoc-vien-tuong",
		"":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Dòng một Dòng hai", StripHTML("<p>Dòng một</p><p>Dòng <b>hai</b></p>"))
	assert.Equal(t, "a & b", StripHTML("a &amp; b"))
	assert.Equal(t, "plain text", StripHTML("  plain\n\ttext "))
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder("Đang cập nhật"))
	assert.True(t, IsPlaceholder("  "))
	assert.False(t, IsPlaceholder("Trấn Thành"))
}
