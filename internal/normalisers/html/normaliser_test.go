package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	assert.ElementsMatch(t, []string{"text/html", "application/xhtml+xml"}, mimeTypes)
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise(t *testing.T) {
	ctx := context.Background()

	t.Run("notice page", func(t *testing.T) {
		raw := &domain.RawDocument{
			SourceID: "filesystem",
			ID:       "TCEnergy_12347.html",
			URI:      "data/TCEnergy_12347.html",
			MIMEType: "text/html",
			Content: []byte(`<html><head><title>Capacity Constraint &amp; Outage</title>
<style>p { color: red }</style></head>
<body><header>Notice 12347</header>
<script>track()</script>
<p>Pipeline X capacity   reduced to 10%.</p><br/>
<!-- internal -->
<table><tr><td>Effective</td><td>Oct 1</td></tr></table>
</body></html>`),
		}

		result, err := New().Normalise(ctx, raw)
		require.NoError(t, err)

		doc := result.Document
		assert.Equal(t, "TCEnergy_12347.html", doc.ID)
		assert.Equal(t, "Capacity Constraint & Outage", doc.Title)
		assert.Equal(t, "Notice 12347\nPipeline X capacity reduced to 10%.\nEffective\nOct 1", doc.Content)
		assert.NotContains(t, doc.Content, "track")
		assert.NotContains(t, doc.Content, "color")
		assert.NotContains(t, doc.Content, "internal")
	})

	t.Run("title falls back to file name", func(t *testing.T) {
		raw := &domain.RawDocument{
			URI:     "data/Enbridge_991.html",
			Content: []byte("<p>Maintenance window</p>"),
		}

		result, err := New().Normalise(ctx, raw)
		require.NoError(t, err)

		assert.Equal(t, "Enbridge 991", result.Document.Title)
		assert.Equal(t, "data/Enbridge_991.html", result.Document.ID)
		assert.Equal(t, "Maintenance window", result.Document.Content)
	})

	t.Run("markup only yields empty content", func(t *testing.T) {
		raw := &domain.RawDocument{URI: "x.html", Content: []byte("<div><script>x()</script></div>")}

		result, err := New().Normalise(ctx, raw)
		require.NoError(t, err)
		assert.Empty(t, result.Document.Content)
	})

	t.Run("nil document", func(t *testing.T) {
		_, err := New().Normalise(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
