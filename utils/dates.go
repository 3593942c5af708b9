package utils

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	dateDashPattern = regexp.MustCompile(`(\d{4})[-_](\d{2})[-_](\d{2})`)
	dateFlatPattern = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`)
	yearPattern     = regexp.MustCompile(`(19\d{2}|20\d{2})`)
)

// ExtractDateFromFilename pulls a publication date out of a document
// filename. Recognizes YYYY-MM-DD, YYYY_MM_DD, YYYYMMDD and a bare
// year; returns "" when nothing matches. Month and day ranges are
// checked so archive serial numbers like DOJ-OGR-00024825 are not
// mistaken for dates.
func ExtractDateFromFilename(filename string) string {
	for _, pattern := range []*regexp.Regexp{dateDashPattern, dateFlatPattern} {
		for _, m := range pattern.FindAllStringSubmatch(filename, -1) {
			if validMonthDay(m[2], m[3]) {
				return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
			}
		}
	}

	if m := yearPattern.FindStringSubmatch(filename); m != nil {
		return m[1]
	}

	return ""
}

func validMonthDay(month, day string) bool {
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	return m >= 1 && m <= 12 && d >= 1 && d <= 31
}
