package orders

import (
	"fmt"
	"strconv"
	"time"
)

const numberPrefix = "ORD"

// FormatNumber builds a date-scoped order number: ORD + yyyymmdd + a
// zero-padded per-day sequence, e.g. ORD202608290042.
func FormatNumber(day time.Time, seq int) string {
	return fmt.Sprintf("%s%s%04d", numberPrefix, day.Format("20060102"), seq)
}

// DayPrefix is the LIKE pattern matching all numbers issued on the given day.
func DayPrefix(day time.Time) string {
	return numberPrefix + day.Format("20060102")
}

// NextSeq parses the sequence out of the highest number issued so far today.
// An empty last number starts the day at 1.
func NextSeq(lastNumber string) int {
	if len(lastNumber) < 4 {
		return 1
	}
	n, err := strconv.Atoi(lastNumber[len(lastNumber)-4:])
	if err != nil {
		return 1
	}
	return n + 1
}
