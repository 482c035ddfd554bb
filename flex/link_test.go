package flex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "https://maps.google.com/?cid=123", "https://maps.google.com/?cid=123"},
		{"markdown", "[地圖](https://maps.google.com/?cid=123)", "https://maps.google.com/?cid=123"},
		{"angle brackets", "<https://example.com/a>", "https://example.com/a"},
		{"embedded", "請看 https://example.com/menu 謝謝", "https://example.com/menu"},
		{"trailing punctuation", "https://example.com/a。", "https://example.com/a"},
		{"empty path", "https://example.com", "https://example.com/"},
		{"non ascii path", "https://example.com/拉麵", "https://example.com/%E6%8B%89%E9%BA%B5"},
		{"query re-encoded", "https://www.google.com/maps/search/?api=1&query=麵屋 一燈", "https://www.google.com/maps/search/?api=1&query=%E9%BA%B5%E5%B1%8B%E4%B8%80%E7%87%88"},
		{"fragment", "https://example.com/a#top", "https://example.com/a#top"},
		{"stray percent", "https://example.com/a%zz", "https://example.com/a%25zz"},
		{"trailing percent", "https://example.com/100%", "https://example.com/100%25"},
		{"valid escape kept", "https://example.com/a%20b", "https://example.com/a%20b"},
		{"not a url", "N/A", ""},
		{"ftp", "ftp://example.com/file", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLink(tt.in))
		})
	}
}

func TestValidURI(t *testing.T) {
	assert.True(t, ValidURI("https://example.com/"))
	assert.False(t, ValidURI("https://"))
	assert.False(t, ValidURI("https://example.com/a b"))
	assert.False(t, ValidURI("https://example.com/"+strings.Repeat("a", 1000)))
	assert.False(t, ValidURI("mailto:a@example.com"))
}

func TestMapsQueryURL(t *testing.T) {
	assert.Equal(t,
		"https://www.google.com/maps/search/?api=1&query=%E4%B8%80%E7%87%88%20%E5%8F%B0%E5%8C%97",
		MapsQueryURL(" 一燈 ", "台北"))
	assert.Equal(t,
		"https://www.google.com/maps/search/?api=1&query=Ramen%20Bar",
		MapsQueryURL("Ramen Bar", ""))
	assert.Empty(t, MapsQueryURL("", " "))
}

func TestExtractPhotoRef(t *testing.T) {
	u := "https://maps.googleapis.com/maps/api/place/photo?maxwidth=800&photo_reference=AbCdEf123456&key=k"
	assert.Equal(t, "AbCdEf123456", ExtractPhotoRef(u))
	assert.Empty(t, ExtractPhotoRef("https://example.com/a.jpg"))
	assert.Empty(t, ExtractPhotoRef(""))
}
