package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// Text returns the cleaned text of the first match of selector under sel, or
// "" when nothing matches.
func Text(sel *goquery.Selection, selector string) string {
	match := sel.Find(selector).First()
	if match.Length() == 0 {
		return ""
	}
	return CleanText(match.Text())
}

// Attr returns attribute attr of the first match of selector under sel, or ""
// when nothing matches or the attribute is absent.
func Attr(sel *goquery.Selection, selector, attr string) string {
	val, _ := sel.Find(selector).First().Attr(attr)
	return strings.TrimSpace(val)
}

var spaceRun = regexp.MustCompile(`\s+`)

// CleanText NFC-normalizes s and collapses whitespace runs to a single space.
func CleanText(s string) string {
	s = norm.NFC.String(s)
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

var relativeTime = regexp.MustCompile(`(?i)(\d+)\s*(minute|min|hour|hr|day|week|month|year)s?`)

// ParseRelativeTime converts listing text like "3 days ago" into an absolute
// time relative to now. Text it cannot read yields now.
func ParseRelativeTime(text string, now time.Time) time.Time {
	m := relativeTime.FindStringSubmatch(text)
	if m == nil {
		return now
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return now
	}
	switch strings.ToLower(m[2]) {
	case "minute", "min":
		return now.Add(-time.Duration(n) * time.Minute)
	case "hour", "hr":
		return now.Add(-time.Duration(n) * time.Hour)
	case "day":
		return now.AddDate(0, 0, -n)
	case "week":
		return now.AddDate(0, 0, -7*n)
	case "month":
		return now.AddDate(0, -n, 0)
	case "year":
		return now.AddDate(-n, 0, 0)
	}
	return now
}
