package flex

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const maxURILength = 1000

var (
	markdownLinkRe = regexp.MustCompile(`\((https?://[^\s)]+)\)`)
	rawURLRe       = regexp.MustCompile(`https?://\S+`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// ValidURI reports whether u can be used as a LINE uri action.
func ValidURI(u string) bool {
	u = strings.TrimSpace(u)
	if !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
		return false
	}
	if len(u) > maxURILength || strings.IndexFunc(u, unicode.IsSpace) >= 0 {
		return false
	}

	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}

	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// NormalizeLink pulls an http(s) URL out of raw (plain, <wrapped> or Markdown)
// and re-encodes it. It returns "" when no usable URL remains.
func NormalizeLink(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if m := markdownLinkRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if !strings.HasPrefix(s, "http") {
		if m := rawURLRe.FindString(s); m != "" {
			s = m
		}
	}

	s = strings.TrimSpace(strings.TrimRight(s, linkTrailing))
	s = whitespaceRe.ReplaceAllString(s, "")

	u, err := url.Parse(escapeStrayPercent(s))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	if u.User != nil {
		b.WriteString(u.User.String())
		b.WriteByte('@')
	}
	b.WriteString(u.Host)

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	b.WriteString(quote(path, "/%"))

	if q := encodeQuery(u.RawQuery); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	if f := quote(u.EscapedFragment(), "%"); f != "" {
		b.WriteByte('#')
		b.WriteString(f)
	}

	out := b.String()
	if !ValidURI(out) {
		return ""
	}

	return out
}

// MapsQueryURL builds a Google Maps search link for a place name and address.
func MapsQueryURL(name, address string) string {
	var parts []string
	for _, p := range []string{name, address} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}

	u := "https://www.google.com/maps/search/?api=1&query=" + quote(strings.Join(parts, " "), "")
	if !ValidURI(u) {
		return ""
	}

	return u
}

// ExtractPhotoRef returns the photo_reference parameter of a Places photo URL.
func ExtractPhotoRef(photoURL string) string {
	if photoURL == "" {
		return ""
	}

	u, err := url.Parse(photoURL)
	if err != nil {
		return ""
	}

	return u.Query().Get("photo_reference")
}

// encodeQuery re-encodes each key=value pair, keeping their order.
// escapeStrayPercent encodes every "%" that does not start a valid escape.
func escapeStrayPercent(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && (i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(s[i])
	}

	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func encodeQuery(raw string) string {
	var pairs []string
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}

		k, v, _ := strings.Cut(part, "=")
		pairs = append(pairs, url.QueryEscape(unescape(k))+"="+url.QueryEscape(unescape(v)))
	}

	return strings.Join(pairs, "&")
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}

	return s
}

// quote percent-encodes every byte except letters, digits, "_.-~" and safe.
func quote(s, safe string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || strings.IndexByte(safe, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}

	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '_' || c == '.' || c == '-' || c == '~':
		return true
	}

	return false
}
