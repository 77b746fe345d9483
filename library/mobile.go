package library

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

var (
	allDigits      = regexp.MustCompile(`^\d+$`)
	spreadsheetNum = regexp.MustCompile(`^(\d+)\.0+$`)
	mobileSeps     = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\u00a0", "")
)

// NormalizeMobile returns the canonical digit-string form of a mobile
// number. Spreadsheet float renderings ("9876543210.0", "9.87654321e+09"),
// full-width digits, surrounding blanks and separators all collapse to the
// same value. Input that is not a number comes back cleaned but otherwise
// unchanged.
func NormalizeMobile(v string) string {
	s := mobileSeps.Replace(width.Fold.String(strings.TrimSpace(v)))
	if s == "" || allDigits.MatchString(s) {
		return s
	}
	if m := spreadsheetNum.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f == math.Trunc(f) && f < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return s
}

// SameMobile compares two mobiles in canonical form. Blank never matches.
func SameMobile(a, b string) bool {
	na := NormalizeMobile(a)
	return na != "" && na == NormalizeMobile(b)
}

// ValidateMobile requires exactly ten digits after normalization.
func ValidateMobile(v string) error {
	m := NormalizeMobile(v)
	if len(m) != 10 || !allDigits.MatchString(m) {
		return validation("mobile number %q must be exactly 10 digits", v)
	}
	return nil
}
