package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_Fulfillable(t *testing.T) {
	p := Product{IsActive: true, DownloadLink: "https://files.example.com/ebook.pdf"}
	assert.True(t, p.Fulfillable())

	p.IsActive = false
	assert.False(t, p.Fulfillable())

	p.IsActive = true
	p.DownloadLink = ""
	assert.False(t, p.Fulfillable(), "unmapped products are skipped")
}

func TestProduct_ChatMessage(t *testing.T) {
	const link = "https://files.example.com/ebook.pdf"

	t.Run("substitutes the link into a custom template", func(t *testing.T) {
		p := Product{
			DownloadLink: link,
			ChatTemplate: "Download di sini: {link} - selamat membaca!",
		}
		assert.Equal(t, "Download di sini: "+link+" - selamat membaca!", p.ChatMessage())
	})

	t.Run("falls back to the default template", func(t *testing.T) {
		p := Product{DownloadLink: link}
		msg := p.ChatMessage()
		assert.Contains(t, msg, link)
		assert.NotContains(t, msg, LinkPlaceholder)
		assert.Contains(t, msg, "Terima kasih")
	})

	t.Run("appends the link when the template lacks the placeholder", func(t *testing.T) {
		p := Product{
			DownloadLink: link,
			ChatTemplate: "Terima kasih sudah order!",
		}
		msg := p.ChatMessage()
		assert.True(t, strings.HasSuffix(msg, "\n"+link))
	})

	t.Run("replaces every placeholder occurrence", func(t *testing.T) {
		p := Product{
			DownloadLink: link,
			ChatTemplate: "{link} atau {link}",
		}
		assert.Equal(t, link+" atau "+link, p.ChatMessage())
	})
}

func TestProduct_MarkBoosted(t *testing.T) {
	p := Product{}
	when := time.Now()

	p.MarkBoosted(when)
	require.NotNil(t, p.LastBoostedAt)
	assert.Equal(t, when, *p.LastBoostedAt)
	assert.Equal(t, when, p.UpdatedAt)
}
