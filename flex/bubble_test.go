package flex

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBubble(t *testing.T) {
	fields := Fields{
		KeyName:     "麵屋一燈",
		KeyRating:   "★★★★☆ 4.2（1,234）",
		KeyAddress:  "台北市中山區南京東路一段",
		KeyFeatures: "濃厚魚介",
		KeyHours:    "11:00–21:00",
		KeyLink:     "https://www.google.com/maps/search/?api=1&query=x",
	}

	b := NewBubble(fields, "https://bot.example.com/photo/ref.jpg?v=1", LocaleJA)

	require.NotNil(t, b.Hero)
	assert.Equal(t, "20:13", b.Hero.AspectRatio)

	body := b.Body.Contents
	require.Len(t, body, 5)
	assert.Equal(t, "麵屋一燈", body[0].Text)

	stars := body[1].Contents
	require.Len(t, stars, 3)
	assert.Equal(t, "★★★★☆", stars[0].Text)
	assert.Equal(t, "4.2", stars[1].Text)
	assert.Equal(t, "(1234)", stars[2].Text)

	assert.Equal(t, "地址:", body[2].Contents[0].Text)
	assert.Equal(t, "特徴:", body[3].Contents[0].Text)
	assert.Equal(t, 3, body[3].Contents[1].MaxLines)
	assert.Equal(t, "営業時間:", body[4].Contents[0].Text)
	assert.Equal(t, "11:00-21:00", body[4].Contents[1].Text)

	require.NotNil(t, b.Footer)
	action := b.Footer.Contents[0].Action
	assert.Equal(t, "地図を開く", action.Label)
	assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=x", action.URI)
}

func TestNewBubble_Fallbacks(t *testing.T) {
	b := NewBubble(Fields{KeyName: "小店", KeyRating: "很好", KeyAddress: "台北", KeyLink: "N/A"}, "", LocaleZH)

	assert.Nil(t, b.Hero)
	assert.Equal(t, "很好", b.Body.Contents[1].Text)
	require.NotNil(t, b.Footer)
	assert.Equal(t, MapsQueryURL("小店", "台北"), b.Footer.Contents[0].Action.URI)
}

func TestNewBubble_NoLink(t *testing.T) {
	b := NewBubble(Fields{KeyRecommend: "叉燒"}, "", LocaleEN)

	assert.Nil(t, b.Footer)
	assert.Equal(t, "Recommendations:", b.Body.Contents[0].Contents[0].Text)
}

func TestBubble_JSON(t *testing.T) {
	b := NewBubble(Fields{KeyName: "A", KeyRating: "4.0"}, "", LocaleZH)

	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, decoded, "hero")

	row := decoded["body"].(map[string]interface{})["contents"].([]interface{})[1].(map[string]interface{})
	star := row["contents"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, false, star["wrap"])
	assert.Equal(t, float64(0), star["flex"])
	assert.Equal(t, "#ffcc00", star["color"])
}

func TestNewCarousel_Limit(t *testing.T) {
	var bubbles []Bubble
	for i := 0; i < 12; i++ {
		bubbles = append(bubbles, NewBubble(Fields{KeyName: fmt.Sprintf("shop %d", i)}, "", LocaleZH))
	}

	c := NewCarousel(bubbles)
	assert.Equal(t, "carousel", c.Type)
	assert.Len(t, c.Contents, MaxBubbles)
}

func TestCarousel_Message(t *testing.T) {
	c := NewCarousel([]Bubble{
		NewBubble(Fields{KeyName: "麵屋一燈", KeyRating: "4.2（10）", KeyAddress: "台北"}, "https://example.com/p.jpg", LocaleZH),
	})

	msg, err := c.Message()
	require.NoError(t, err)
	assert.Equal(t, AltText, msg.AltText)
	assert.NotNil(t, msg.Contents)
}
