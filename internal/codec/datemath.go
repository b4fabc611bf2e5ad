package codec

import (
	"regexp"
	"strings"
)

// calendarUnits are the units accepted by the engine's date-math grammar.
// Each may carry a trailing "S" (DAY or DAYS).
var calendarUnits = []string{
	"MILLI", "MILLISECOND", "SECOND", "MINUTE", "HOUR", "DAY", "MONTH", "YEAR",
}

var dateMathRe = func() *regexp.Regexp {
	groups := make([]string, len(calendarUnits))
	for i, u := range calendarUnits {
		groups[i] = u + "S?"
	}
	unit := "(?:" + strings.Join(groups, "|") + ")"
	return regexp.MustCompile(`^NOW(?:/` + unit + `)?(?:[+-]\d+` + unit + `)*$`)
}()

// DateMath is a NOW-relative date expression such as "NOW/DAY-7DAYS".
// It is the native form DateTime uses for tokens that cannot be resolved
// without the engine's clock.
type DateMath string

// String returns the expression text.
func (d DateMath) String() string { return string(d) }

// IsDateMath reports whether s matches NOW(/UNIT)?([+-]N UNIT)*.
func IsDateMath(s string) bool {
	return dateMathRe.MatchString(s)
}

// ParseDateMath validates s and returns it as a DateMath.
func ParseDateMath(s string) (DateMath, error) {
	if !IsDateMath(s) {
		return "", convErr("datemath", s, nil)
	}
	return DateMath(s), nil
}
