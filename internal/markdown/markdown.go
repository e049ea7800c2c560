package markdown

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	ugcPolicy   = newUGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

func newUGCPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	return p
}

// Render converts markdown to sanitized HTML. On parser failure the raw
// source is sanitized and returned instead.
func Render(source string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return ugcPolicy.Sanitize(source)
	}
	return string(ugcPolicy.SanitizeBytes(buf.Bytes()))
}

// StripTags removes all markup. Used for fields that must stay plain text,
// like report reasons and rule titles.
func StripTags(input string) string {
	return plainPolicy.Sanitize(input)
}
