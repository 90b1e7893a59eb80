package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	day := time.Date(2026, 8, 29, 13, 0, 0, 0, time.UTC)
	assert.Equal(t, "ORD202608290001", FormatNumber(day, 1))
	assert.Equal(t, "ORD202608290042", FormatNumber(day, 42))
	assert.Equal(t, "ORD202608291000", FormatNumber(day, 1000))
}

func TestDayPrefix(t *testing.T) {
	day := time.Date(2026, 8, 29, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "ORD20260829", DayPrefix(day))
}

func TestNextSeq(t *testing.T) {
	assert.Equal(t, 1, NextSeq(""))
	assert.Equal(t, 1, NextSeq("ORD"))
	assert.Equal(t, 2, NextSeq("ORD202608290001"))
	assert.Equal(t, 100, NextSeq("ORD202608290099"))
}

func TestSequenceResetsAcrossDays(t *testing.T) {
	d1 := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	d2 := d1.Add(24 * time.Hour)
	assert.NotEqual(t, DayPrefix(d1), DayPrefix(d2))
	// A new day starts from seq 1 because its prefix matches no prior number.
	assert.Equal(t, 1, NextSeq(""))
}
