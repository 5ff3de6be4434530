package panda

import (
	"fmt"
	"time"
)

// CurrentSemester returns the keyword the portal puts in the title of every
// site belonging to the semester that contains now, ex. "2024前期".
//
// The academic year starts in April, so January to March still belong to the
// previous year's second semester.
func CurrentSemester(now time.Time) string {
	year := now.Year()
	month := now.Month()
	if month <= time.March {
		year--
	}
	term := "後期"
	if month >= time.April && month <= time.August {
		term = "前期"
	}
	return fmt.Sprintf("%d%s", year, term)
}
