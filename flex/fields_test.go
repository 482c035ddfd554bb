package flex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFields(t *testing.T) {
	text := "店名：麵屋一燈\n" +
		"Rating: 4.5 (1,234 reviews)\n" +
		"\n" +
		"住所：台北市中山區\n" +
		"no separator here\n" +
		"店名：second value is ignored\n" +
		"Ｌｉｎｋ：https://maps.google.com/?q=x。）\n"

	got := ParseFields(text)

	assert.Equal(t, Fields{
		KeyName:    "麵屋一燈",
		KeyRating:  "4.5 (1,234 reviews)",
		KeyAddress: "台北市中山區",
		KeyLink:    "https://maps.google.com/?q=x",
	}, got)
}

func TestParseFields_UnknownLabelsKept(t *testing.T) {
	got := ParseFields("電話：02-1234")
	assert.Equal(t, "02-1234", got["電話"])
}

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"中山站附近的拉麵", LocaleZH},
		{"中山駅の近くのラーメン", LocaleJA},
		{"ramen near Zhongshan station", LocaleEN},
		{"ramen 中山", LocaleZH},
		{"123 456", LocaleZH},
		{"", LocaleZH},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLocale(tt.in))
		})
	}
}

func TestLabelsFor(t *testing.T) {
	assert.Equal(t, "地図を開く", LabelsFor(LocaleJA).Map)
	assert.Equal(t, "Open Map", LabelsFor(LocaleEN).Map)
	assert.Equal(t, "查看地圖", LabelsFor("ko").Map)
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in        string
		score     float64
		count     string
		parseable bool
	}{
		{"4.3（320件）", 4.3, "320", true},
		{"★★★★☆ 4.2（1,234）", 4.2, "1234", true},
		{"4.5 (1,234 reviews)", 4.5, "1234", true},
		{"4 stars, 88 ratings", 4, "88", true},
		{"5", 5, "", true},
		{"很好吃", 0, "", false},
		{"", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			score, count, ok := ParseRating(tt.in)
			assert.Equal(t, tt.parseable, ok)
			assert.InDelta(t, tt.score, score, 1e-9)
			assert.Equal(t, tt.count, count)
		})
	}
}

func TestCompactHours(t *testing.T) {
	assert.Equal(t, "11:00 - 14:30; 17:00-21:00", CompactHours("星期一: 11:00 – 14:30, 17:00〜21:00"))
	assert.Equal(t, "休息", CompactHours("休息"))
}

func TestStars(t *testing.T) {
	assert.Equal(t, "★★★★☆", Stars(4.2))
	assert.Equal(t, "★★★★★", Stars(4.6))
	assert.Equal(t, "★★★★☆", Stars(4.5))
	assert.Equal(t, "★★★★★", Stars(7))
	assert.Equal(t, "☆☆☆☆☆", Stars(-1))
}
