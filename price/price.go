// Package price parses and formats Korean marketplace price strings.
//
// Every numeric price stored anywhere in the system is derived through
// Parse so that filtering, change detection and stats all agree on what
// a price text is worth:
//
//	"10,000원"  -> 10000
//	"10만"      -> 100000
//	"1.2만"     -> 12000
//	"2만5천"    -> 25000
//	"무료나눔"  -> 0
package price

import (
	"regexp"
	"strconv"
	"strings"
)

var freeKeywords = []string{"무료나눔", "무료", "나눔", "무나"}

var (
	manRe      = regexp.MustCompile(`(\d+(?:\.\d+)?)만`)
	thousandRe = regexp.MustCompile(`(\d+(?:\.\d+)?)천`)
	digitRe    = regexp.MustCompile(`\d+`)
)

// Parse converts a KRW price string into an integer amount in won.
// Returns 0 for unknown, free or unparseable prices.
func Parse(text string) int {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0
	}

	s = strings.ReplaceAll(s, " ", "")
	s = strings.ToLower(s)
	for _, cut := range []string{",", "krw", "￦", "원"} {
		s = strings.ReplaceAll(s, cut, "")
	}

	if !digitRe.MatchString(s) {
		for _, k := range freeKeywords {
			if strings.Contains(s, k) {
				return 0
			}
		}
		return 0
	}
	if s == "0" || s == "0.0" {
		return 0
	}

	// "X만 ..." is the dominant format on used markets.
	if m := manRe.FindStringSubmatchIndex(s); m != nil {
		v, err := strconv.ParseFloat(s[m[2]:m[3]], 64)
		if err != nil {
			return 0
		}
		total := int(v * 10_000)
		rest := s[m[1]:]

		// Optional "Y천" tail.
		if t := thousandRe.FindStringSubmatch(rest); t != nil {
			if tv, err := strconv.ParseFloat(t[1], 64); err == nil {
				total += int(tv * 1_000)
			}
			return max(total, 0)
		}

		// "2만5000" or "2만5" style tails. A short tail means 천 units.
		if d := digitRe.FindString(rest); d != "" {
			if tail, err := strconv.Atoi(d); err == nil {
				if tail < 1000 {
					total += tail * 1000
				} else {
					total += tail
				}
			}
		}
		return max(total, 0)
	}

	// "X천" without 만.
	if t := thousandRe.FindStringSubmatch(s); t != nil {
		v, err := strconv.ParseFloat(t[1], 64)
		if err != nil {
			return 0
		}
		return max(int(v*1_000), 0)
	}

	// Fallback: join all digit groups.
	joined := strings.Join(digitRe.FindAllString(s, -1), "")
	if joined == "" {
		return 0
	}
	n, err := strconv.Atoi(joined)
	if err != nil {
		return 0
	}
	return max(n, 0)
}

// Format renders an integer KRW amount as display text.
func Format(amount int) string {
	if amount <= 0 {
		return "가격문의"
	}
	s := strconv.Itoa(amount)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString("원")
	return b.String()
}
