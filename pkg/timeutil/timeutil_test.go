package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	utc := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)

	assert.Equal(t, "09/03/2024", FormatDate(utc), "02:00 UTC is still the previous day in São Paulo")
	assert.Equal(t, "09/03/2024 23:00", FormatDateTime(utc))
	assert.Equal(t, "09/03", FormatShortDate(utc))
	assert.Equal(t, "-", FormatDate(time.Time{}))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("10/03/2024")
	require.NoError(t, err)
	assert.Equal(t, Date(2024, 3, 10), d)

	d, err = ParseDate(" 2024-03-10 ")
	require.NoError(t, err)
	assert.Equal(t, Date(2024, 3, 10), d)

	_, err = ParseDate("31/02/2024")
	assert.Error(t, err)
}

func TestIsSameDay(t *testing.T) {
	a := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	assert.True(t, IsSameDay(a, b))
}

func TestFormatRelative(t *testing.T) {
	assert.Equal(t, "agora", FormatRelative(time.Now()))
	assert.Equal(t, "há 5 min", FormatRelative(time.Now().Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "há 10 dias", FormatRelative(StartOfDay(Now()).AddDate(0, 0, -10)))
}

func TestFormatLong(t *testing.T) {
	assert.Equal(t, "10 de março de 2024", FormatLong(Date(2024, 3, 10)))
	assert.Equal(t, "", MonthName(0))
}
