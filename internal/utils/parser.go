package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reNonSlug   = regexp.MustCompile(`[^a-z0-9]+`)
	reSpaces    = regexp.MustCompile(`\s+`)
	placeholder = map[string]bool{
		"đang cập nhật": true,
		"dang cap nhat": true,
		"updating":      true,
		"n/a":           true,
	}
)

// RemoveDiacritics 去除越南语声调符号（đ/Đ 单独处理）
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ReplaceAll(out, "đ", "d")
	out = strings.ReplaceAll(out, "Đ", "D")
	return out
}

// Slugify 生成与上游一致的 slug，例如 "Hành Động" -> "hanh-dong"
func Slugify(s string) string {
	s = strings.ToLower(RemoveDiacritics(strings.TrimSpace(s)))
	s = reNonSlug.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// StripHTML 将上游简介中的 HTML 转为纯文本
func StripHTML(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return CollapseSpaces(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return CollapseSpaces(html)
	}
	// 段落之间保留空格
	doc.Find("br, p, div, li").Each(func(i int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return CollapseSpaces(doc.Text())
}

// CollapseSpaces 合并多余空白
func CollapseSpaces(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// IsPlaceholder 判断是否是上游的占位文本（如 "Đang cập nhật"）
func IsPlaceholder(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "" || placeholder[s]
}
