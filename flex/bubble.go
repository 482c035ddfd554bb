package flex

import (
	"encoding/json"
	"fmt"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

const (
	AltText    = "餐廳資訊"
	MaxBubbles = 10
)

type Action struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URI   string `json:"uri"`
}

// Component is the subset of the Flex component schema the cards use.
type Component struct {
	Type        string      `json:"type"`
	Layout      string      `json:"layout,omitempty"`
	Text        string      `json:"text,omitempty"`
	URL         string      `json:"url,omitempty"`
	Size        string      `json:"size,omitempty"`
	AspectMode  string      `json:"aspectMode,omitempty"`
	AspectRatio string      `json:"aspectRatio,omitempty"`
	Weight      string      `json:"weight,omitempty"`
	Color       string      `json:"color,omitempty"`
	Margin      string      `json:"margin,omitempty"`
	Spacing     string      `json:"spacing,omitempty"`
	Style       string      `json:"style,omitempty"`
	Height      string      `json:"height,omitempty"`
	Wrap        *bool       `json:"wrap,omitempty"`
	Flex        *int        `json:"flex,omitempty"`
	MaxLines    int         `json:"maxLines,omitempty"`
	Contents    []Component `json:"contents,omitempty"`
	Action      *Action     `json:"action,omitempty"`
}

type Bubble struct {
	Type   string     `json:"type"`
	Hero   *Component `json:"hero,omitempty"`
	Body   *Component `json:"body"`
	Footer *Component `json:"footer,omitempty"`
}

type Carousel struct {
	Type     string   `json:"type"`
	Contents []Bubble `json:"contents"`
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

// NewBubble renders one answer as a card. The hero image is omitted when photoURL
// is empty and the footer when no usable link can be built.
func NewBubble(fields Fields, photoURL, locale string) Bubble {
	lbl := LabelsFor(locale)

	var body []Component

	name := fields[KeyName]
	if name != "" {
		body = append(body, Component{Type: "text", Text: name, Weight: "bold", Size: "xl", Wrap: boolPtr(true)})
	}

	if rating := fields[KeyRating]; rating != "" {
		body = append(body, ratingRow(rating))
	}

	rows := []struct {
		key   string
		label string
	}{
		{KeyAddress, lbl.Address},
		{KeyRecommend, lbl.Recommend},
		{KeyFeatures, lbl.Features},
		{KeyHours, lbl.Hours},
	}
	for _, row := range rows {
		val := fields[row.key]
		if val == "" {
			continue
		}
		if row.key == KeyHours {
			val = CompactHours(val)
		}

		value := Component{Type: "text", Text: val, Size: "sm", Color: "#666666", Flex: intPtr(9), Wrap: boolPtr(true)}
		if row.key == KeyFeatures {
			value.MaxLines = 3
		}

		body = append(body, Component{
			Type:    "box",
			Layout:  "baseline",
			Spacing: "sm",
			Contents: []Component{
				{Type: "text", Text: row.label + ":", Weight: "bold", Color: "#333333", Size: "sm", Flex: intPtr(3), Wrap: boolPtr(true)},
				value,
			},
		})
	}

	b := Bubble{
		Type: "bubble",
		Body: &Component{Type: "box", Layout: "vertical", Contents: body},
	}

	if photoURL != "" {
		b.Hero = &Component{Type: "image", URL: photoURL, Size: "full", AspectMode: "cover", AspectRatio: "20:13"}
	}

	link := NormalizeLink(fields[KeyLink])
	if link == "" {
		link = MapsQueryURL(name, fields[KeyAddress])
	}
	if link != "" {
		b.Footer = &Component{
			Type:    "box",
			Layout:  "vertical",
			Spacing: "sm",
			Flex:    intPtr(0),
			Contents: []Component{{
				Type:   "button",
				Style:  "link",
				Height: "sm",
				Action: &Action{Type: "uri", Label: lbl.Map, URI: link},
			}},
		}
	}

	return b
}

func ratingRow(rating string) Component {
	score, count, ok := ParseRating(rating)
	if !ok {
		return Component{Type: "text", Text: rating, Size: "sm", Color: "#666666", Margin: "xs", Wrap: boolPtr(true)}
	}

	contents := []Component{
		{Type: "text", Text: Stars(score), Size: "sm", Color: "#ffcc00", Wrap: boolPtr(false), Flex: intPtr(0)},
		{Type: "text", Text: fmt.Sprintf("%.1f", score), Size: "sm", Color: "#333333", Margin: "sm", Wrap: boolPtr(false), Flex: intPtr(0)},
	}
	if count != "" {
		contents = append(contents, Component{
			Type: "text", Text: "(" + count + ")", Size: "sm", Color: "#666666", Margin: "sm", Wrap: boolPtr(false), Flex: intPtr(0),
		})
	}

	return Component{Type: "box", Layout: "baseline", Spacing: "sm", Contents: contents}
}

// NewCarousel wraps up to MaxBubbles cards.
func NewCarousel(bubbles []Bubble) Carousel {
	if len(bubbles) > MaxBubbles {
		bubbles = bubbles[:MaxBubbles]
	}

	return Carousel{Type: "carousel", Contents: bubbles}
}

// Message converts the carousel into a sendable LINE flex message.
func (c Carousel) Message() (*linebot.FlexMessage, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal carousel: %w", err)
	}

	container, err := linebot.UnmarshalFlexMessageJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode flex container: %w", err)
	}

	return linebot.NewFlexMessage(AltText, container), nil
}
