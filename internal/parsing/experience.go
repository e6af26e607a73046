package parsing

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// maxPlausibleYears bounds any single experience estimate
const maxPlausibleYears = 50.0

var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*\+?\s*(?:years?|yrs?)(?:\s+of)?\s+(?:(?:professional|industry|relevant|hands-on|work)\s+)?(?:experience|exp)\b`),
	regexp.MustCompile(`(?:experience|exp)(?:\s+of)?\s*:?\s*(\d+(?:\.\d+)?)\s*\+?\s*(?:years?|yrs?)\b`),
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*\+?\s*(?:years?|yrs?)\s+(?:professional|work|industry)\b`),
}

const monthExpr = `(?:\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+)?`

var dateRangePattern = regexp.MustCompile(
	monthExpr + `((?:19|20)\d{2})\s*(?:-|–|—|to)\s*` + monthExpr + `((?:19|20)\d{2}|present|current|now|today)`,
)

var monthIndex = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// ExtractExperienceYears estimates years of experience from raw text using the current time.
func ExtractExperienceYears(text string) float64 {
	return ExtractExperienceYearsAt(text, time.Now())
}

// ExtractExperienceYearsAt estimates years of experience from phrases such as
// "5 years of experience" and date ranges such as "Jan 2018 - Present".
// The maximum plausible value is returned; 0 when nothing matches.
func ExtractExperienceYearsAt(text string, now time.Time) float64 {
	if text == "" {
		return 0.0
	}
	lower := strings.ToLower(text)

	best := 0.0
	consider := func(v float64) {
		if v > 0 && v <= maxPlausibleYears && v > best {
			best = v
		}
	}

	for _, pattern := range experiencePatterns {
		for _, m := range pattern.FindAllStringSubmatch(lower, -1) {
			years, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			consider(years)
		}
	}

	nowPoint := float64(now.Year()) + float64(int(now.Month())-1)/12.0
	for _, m := range dateRangePattern.FindAllStringSubmatch(lower, -1) {
		start, ok := yearPoint(m[1], m[2])
		if !ok {
			continue
		}
		var end float64
		switch m[4] {
		case "present", "current", "now", "today":
			end = nowPoint
		default:
			end, ok = yearPoint(m[3], m[4])
			if !ok {
				continue
			}
		}
		if start > nowPoint || end > nowPoint+1 || end < start {
			continue
		}
		consider(end - start)
	}

	return best
}

// yearPoint converts an optional month abbreviation and year into fractional years
func yearPoint(month, year string) (float64, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return 0, false
	}
	point := float64(y)
	if idx, ok := monthIndex[month]; ok {
		point += float64(idx-1) / 12.0
	}
	return point, true
}
