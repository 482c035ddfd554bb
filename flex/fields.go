package flex

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Canonical field keys.
const (
	KeyName      = "店名"
	KeyRating    = "評價"
	KeyAddress   = "地址"
	KeyRecommend = "推薦"
	KeyFeatures  = "特色"
	KeyHours     = "營業時間"
	KeyLink      = "Link"
)

// Fields maps canonical keys to the values of an answer block.
type Fields map[string]string

var labelAliases = map[string]string{
	"店名": KeyName, "Name": KeyName, "名稱": KeyName, "名前": KeyName,

	"評價": KeyRating, "Rating": KeyRating, "評判": KeyRating, "評価": KeyRating,

	"地址": KeyAddress, "Address": KeyAddress, "住所": KeyAddress,

	"推薦": KeyRecommend, "Recommendation": KeyRecommend, "Recommendations": KeyRecommend,
	"Recommended": KeyRecommend, "おすすめ": KeyRecommend,

	"特色": KeyFeatures, "Features": KeyFeatures, "Feature": KeyFeatures, "特徴": KeyFeatures,

	"營業時間": KeyHours, "Opening Hours": KeyHours, "Hours of Operation": KeyHours,
	"Business Hours": KeyHours, "営業時間": KeyHours,

	"Link": KeyLink, "連結": KeyLink, "URL": KeyLink, "リンク": KeyLink,
}

const linkTrailing = "。．、）」)]】』>"

// ParseFields reads "key：value" (or "key: value") lines. Labels in any of the
// supported languages are folded onto the canonical keys and the first value wins.
func ParseFields(text string) Fields {
	fields := Fields{}
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}

		key, val, ok := strings.Cut(s, "：")
		if !ok {
			key, val, ok = strings.Cut(s, ":")
		}
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if canonical, ok := labelAliases[width.Fold.String(key)]; ok {
			key = canonical
		}

		if key == KeyLink {
			val = strings.TrimRight(val, linkTrailing)
		}

		if _, seen := fields[key]; !seen {
			fields[key] = val
		}
	}

	return fields
}

const (
	LocaleZH = "zh"
	LocaleJA = "ja"
	LocaleEN = "en"
)

// DetectLocale guesses the card language from the user's message script.
func DetectLocale(s string) string {
	var total, ascii int
	hasHan := false
	for _, r := range s {
		total++
		if r >= 0x3040 && r <= 0x30FF {
			return LocaleJA
		}
		if r >= 0x4E00 && r <= 0x9FFF {
			hasHan = true
		}
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			ascii++
		}
	}

	if total == 0 {
		total = 1
	}
	if float64(ascii)/float64(total) > 0.5 && !hasHan {
		return LocaleEN
	}

	return LocaleZH
}

type Labels struct {
	Address   string
	Rating    string
	Recommend string
	Features  string
	Hours     string
	Map       string
}

var labels = map[string]Labels{
	LocaleZH: {Address: "地址", Rating: "評價", Recommend: "推薦", Features: "特色", Hours: "營業時間", Map: "查看地圖"},
	LocaleJA: {Address: "地址", Rating: "評価", Recommend: "おすすめ", Features: "特徴", Hours: "営業時間", Map: "地図を開く"},
	LocaleEN: {Address: "地址", Rating: "Rating", Recommend: "Recommendations", Features: "Features", Hours: "Hours", Map: "Open Map"},
}

// LabelsFor returns the labels of locale, falling back to Chinese.
func LabelsFor(locale string) Labels {
	if l, ok := labels[locale]; ok {
		return l
	}

	return labels[LocaleZH]
}

var (
	scoreRe        = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	countInParenRe = regexp.MustCompile(`(?i)[(（]\s*([0-9][0-9,]*)\s*(?:件|則|条|reviews?|ratings?|人の評価)?\s*[)）]`)
	countBareRe    = regexp.MustCompile(`(?i)([0-9][0-9,]*)\s*(?:件|則|条|reviews?|ratings?)`)
)

// ParseRating extracts the score and the review count from strings such as
// "4.3（320件）" or "★★★★☆ 4.5 (1,234 reviews)". count is digits only, or "".
func ParseRating(s string) (score float64, count string, ok bool) {
	if s == "" {
		return 0, "", false
	}

	if m := scoreRe.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			score, ok = v, true
		}
	}

	if m := countInParenRe.FindStringSubmatch(s); m != nil {
		count = strings.ReplaceAll(m[1], ",", "")
	} else if m := countBareRe.FindStringSubmatch(s); m != nil {
		count = strings.ReplaceAll(m[1], ",", "")
	}

	return score, count, ok
}

var (
	dashRe  = regexp.MustCompile(`[—–−~〜-]`)
	rangeRe = regexp.MustCompile(`\d{1,2}:\d{2}\s*-\s*\d{1,2}:\d{2}`)
)

// CompactHours reduces an opening-hours value to its "H:MM - H:MM" ranges.
func CompactHours(v string) string {
	times := rangeRe.FindAllString(dashRe.ReplaceAllString(v, "-"), -1)
	if len(times) == 0 {
		return v
	}

	return strings.Join(times, "; ")
}

// Stars renders a 0..5 score as five filled/empty stars.
func Stars(score float64) string {
	filled := int(math.RoundToEven(score))
	if filled < 0 {
		filled = 0
	}
	if filled > 5 {
		filled = 5
	}

	return strings.Repeat("★", filled) + strings.Repeat("☆", 5-filled)
}
