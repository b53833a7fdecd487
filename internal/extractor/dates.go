package extractor

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const isoDate = "2006-01-02"

// numericDayFirst matches d/m/yyyy, which dateparse would read month first.
var numericDayFirst = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)

// monthNames maps Indonesian and English month names and their common
// abbreviations to month numbers.
var monthNames = map[string]time.Month{
	"januari": time.January, "january": time.January, "jan": time.January,
	"februari": time.February, "february": time.February, "feb": time.February, "pebruari": time.February,
	"maret": time.March, "march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"mei": time.May, "may": time.May,
	"juni": time.June, "june": time.June, "jun": time.June,
	"juli": time.July, "july": time.July, "jul": time.July,
	"agustus": time.August, "august": time.August, "agu": time.August, "agt": time.August, "ags": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"oktober": time.October, "october": time.October, "okt": time.October, "oct": time.October,
	"november": time.November, "nopember": time.November, "nov": time.November,
	"desember": time.December, "december": time.December, "des": time.December, "dec": time.December,
}

var (
	monthAlt = monthAlternation()
	monthRe  = regexp.MustCompile(`\b(` + monthAlt + `)\b`)
	// "5 Agustus", "5-Agu", "21st March"
	dayMonthRe = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?[\s.\-/]*(` + monthAlt + `)\b`)
	// "Mar 7", "Januari 15"
	monthDayRe = regexp.MustCompile(`\b(` + monthAlt + `)[\s.\-/]*(\d{1,2})\b`)
	yearRe     = regexp.MustCompile(`\b(20\d{2})\b`)
	dayRe      = regexp.MustCompile(`\b(\d{1,2})\b`)
)

// monthAlternation orders names longest first so "januari" wins over "jan".
func monthAlternation() string {
	names := make([]string, 0, len(monthNames))
	for name := range monthNames {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return strings.Join(names, "|")
}

// ParseDate extracts a calendar date from listing text and returns it as
// YYYY-MM-DD. It reports false when no date can be recognized.
func ParseDate(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	if numericDayFirst.MatchString(text) {
		if t, err := time.Parse("2/1/2006", text); err == nil {
			return t.Format(isoDate), true
		}
		return "", false
	}
	if t, err := dateparse.ParseAny(text); err == nil {
		return t.Format(isoDate), true
	}

	lower := strings.ToLower(text)
	month, day, ok := monthAndDay(lower)
	if !ok {
		return "", false
	}

	ym := yearRe.FindString(lower)
	if ym == "" {
		return "", false
	}
	year, _ := strconv.Atoi(ym)

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		// 31 Februari and the like
		return "", false
	}
	return t.Format(isoDate), true
}

// monthAndDay finds a month name and its day number. A number written next
// to the month wins over numbers elsewhere in the text, such as a time.
func monthAndDay(lower string) (time.Month, int, bool) {
	if m := dayMonthRe.FindStringSubmatch(lower); m != nil {
		if day, ok := dayOfMonth(m[1]); ok {
			return monthNames[m[2]], day, true
		}
	}
	if m := monthDayRe.FindStringSubmatch(lower); m != nil {
		if day, ok := dayOfMonth(m[2]); ok {
			return monthNames[m[1]], day, true
		}
	}

	name := monthRe.FindString(lower)
	if name == "" {
		return 0, 0, false
	}
	for _, d := range dayRe.FindAllString(lower, -1) {
		if day, ok := dayOfMonth(d); ok {
			return monthNames[name], day, true
		}
	}
	return 0, 0, false
}

func dayOfMonth(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil && n >= 1 && n <= 31
}
