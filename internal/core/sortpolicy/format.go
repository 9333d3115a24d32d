package sortpolicy

import (
	"golang.org/x/text/language"
)

// SizeUnits lists the magnitude units in increasing order
var SizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// SizeUnit returns the magnitude unit of a byte count, dividing by 1024
// while the value is at least 1024. Values beyond the largest unit stay
// in YB.
func SizeUnit(bytes float64) string {
	i := 0
	for bytes >= 1024 && i < len(SizeUnits)-1 {
		bytes /= 1024
		i++
	}
	return SizeUnits[i]
}

// short date layouts indexed in the same order as dateLocales
var (
	dateLocales = []language.Tag{
		language.Und,
		language.AmericanEnglish,
		language.BritishEnglish,
		language.French,
		language.Spanish,
		language.Italian,
		language.German,
		language.Russian,
		language.Japanese,
		language.Chinese,
	}
	dateLayouts = []string{
		"2006-01-02",
		"1/2/2006",
		"02/01/2006",
		"02/01/2006",
		"02/01/2006",
		"02/01/2006",
		"02.01.2006",
		"02.01.2006",
		"2006/01/02",
		"2006/01/02",
	}
	dateMatcher = language.NewMatcher(dateLocales)
)

// ShortDateLayout returns the time layout of the short date format for a
// BCP 47 locale. Unknown or empty locales use ISO 8601.
func ShortDateLayout(locale string) string {
	if locale == "" {
		return dateLayouts[0]
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return dateLayouts[0]
	}
	_, idx, conf := dateMatcher.Match(tag)
	if conf == language.No || idx < 0 || idx >= len(dateLayouts) {
		return dateLayouts[0]
	}
	return dateLayouts[idx]
}
