package html

import (
	"context"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts an HTML notice to plain text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	page := string(raw.Content)

	id := raw.ID
	if id == "" {
		id = raw.URI
	}

	doc := domain.Document{
		ID:        id,
		SourceID:  raw.SourceID,
		URI:       raw.URI,
		Title:     pageTitle(page, raw.URI),
		Content:   visibleText(page),
		UpdatedAt: raw.ModifiedAt,
	}

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

var (
	titleTag = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

	// invisible elements are dropped together with their content.
	invisible = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<head(\s[^>]*)?>.*?</head>`),
		regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`),
		regexp.MustCompile(`(?s)<!--.*?-->`),
	}

	// lineBreaks become newlines so block structure survives tag stripping.
	lineBreaks = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|td|th|blockquote|pre|table|section|article)[^>]*>`),
		regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|td|th|blockquote|pre|table|section|article)>`),
		regexp.MustCompile(`(?i)<br\s*/?>`),
		regexp.MustCompile(`(?i)<hr\s*/?>`),
	}

	anyTag  = regexp.MustCompile(`<[^>]+>`)
	hspaces = regexp.MustCompile(`[ \t\x{00a0}]+`)
)

// pageTitle returns the <title> text, falling back to the file name.
func pageTitle(page, uri string) string {
	if m := titleTag.FindStringSubmatch(page); len(m) > 1 {
		if title := strings.TrimSpace(html.UnescapeString(m[1])); title != "" {
			return title
		}
	}

	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

// visibleText strips markup and returns non-empty trimmed lines.
func visibleText(page string) string {
	for _, re := range invisible {
		page = re.ReplaceAllString(page, "")
	}
	for _, re := range lineBreaks {
		page = re.ReplaceAllString(page, "\n")
	}
	page = anyTag.ReplaceAllString(page, "")
	page = html.UnescapeString(page)
	page = hspaces.ReplaceAllString(page, " ")

	var lines []string
	for _, line := range strings.Split(page, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
