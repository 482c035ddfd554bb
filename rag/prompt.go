package rag

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/imkonsowa/restaurants-linebot/flex"
	"github.com/imkonsowa/restaurants-linebot/store"
	"github.com/tmc/langchaingo/prompts"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const qaTemplate = `您是台北的餐廳導覽 AI，請根據以下參考資料，對提問做出簡潔且具體的回答。
**請優先考慮「問題中提及的地點」與「捷運站」欄位最接近的餐廳，最多給出3家。**
可以包含任何類型的餐飲（中式、西式、日本料理、甜點、咖啡廳等）。

請僅以以下格式，每家店之間以 --- 分隔，並不要加入其他說明文字或語句。

問題：
{{.question}}

參考資料：
{{.context}}

輸出格式（最多三家）：

店名：
地址：
評價：
推薦：
特色：
營業時間：
`

var qaPrompt = prompts.NewPromptTemplate(qaTemplate, []string{"question", "context"})

// QAPrompt fills the answer template with the question and the retrieved chunks.
func QAPrompt(question string, docs []store.Document) (string, error) {
	contents := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
	}

	return qaPrompt.Format(map[string]any{
		"question": question,
		"context":  strings.Join(contents, "\n\n"),
	})
}

// SplitBlocks splits a model reply into its "---" separated blocks.
func SplitBlocks(reply string) []string {
	var blocks []string
	for _, b := range strings.Split(strings.TrimSpace(reply), "---") {
		if b = strings.TrimSpace(b); b != "" {
			blocks = append(blocks, b)
		}
	}

	return blocks
}

var postalCodeRe = regexp.MustCompile(`^\d{3,6}\s*`)

// PostProcess keeps the "key：value" lines of a block, trims their values and
// drops the postal code in front of an address.
func PostProcess(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		key, val, ok := strings.Cut(line, "：")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if key == flex.KeyAddress {
			val = postalCodeRe.ReplaceAllString(val, "")
		}
		lines = append(lines, key+"："+val)
	}

	return lines
}

func storeName(lines []string) string {
	for _, l := range lines {
		if name, ok := strings.CutPrefix(l, flex.KeyName+"："); ok {
			return strings.TrimSpace(name)
		}
	}

	return ""
}

var countPrinter = message.NewPrinter(language.English)

// RatingLine renders "評價：★★★★☆ 4.2（1,234）". count is optional.
func RatingLine(rating float64, count *int) string {
	line := fmt.Sprintf("%s：%s %.1f", flex.KeyRating, flex.Stars(rating), rating)
	if count != nil {
		line += countPrinter.Sprintf("（%d）", *count)
	}

	return line
}

// rebuild drops the model's own rating and link lines, puts ratingLine right
// below the name and appends the link.
func rebuild(lines []string, ratingLine, link string) []string {
	out := make([]string, 0, len(lines)+2)
	for _, l := range lines {
		if strings.HasPrefix(l, flex.KeyRating+"：") || strings.HasPrefix(l, flex.KeyLink+"：") {
			continue
		}
		out = append(out, l)
	}

	if ratingLine != "" {
		at := 0
		for i, l := range out {
			if strings.HasPrefix(l, flex.KeyName+"：") {
				at = i + 1
				break
			}
		}
		out = append(out[:at], append([]string{ratingLine}, out[at:]...)...)
	}

	return append(out, flex.KeyLink+"："+link)
}
