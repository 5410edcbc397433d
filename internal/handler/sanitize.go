package handler

import (
	"bytes"
	stdhtml "html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// cleanText 去掉所有标签并裁剪首尾空白，用于评语、备注与标签等纯文本字段
func cleanText(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(stdhtml.UnescapeString(strictPolicy.Sanitize(raw)))
}

func cleanTextPtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	cleaned := cleanText(*raw)
	return &cleaned
}

// renderMarkdown 将习惯描述渲染为经过 UGC 策略过滤的 HTML
func renderMarkdown(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return ugcPolicy.Sanitize(stdhtml.EscapeString(content))
	}
	return string(ugcPolicy.SanitizeBytes(buf.Bytes()))
}
