package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeriod(t *testing.T) {
	p, err := NewPeriod(2024, 3)
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2024, Month: time.March}, p)

	_, err = NewPeriod(2024, 0)
	assert.ErrorIs(t, err, ErrInvalidMonth)
	_, err = NewPeriod(2024, 13)
	assert.ErrorIs(t, err, ErrInvalidMonth)
	_, err = NewPeriod(12, 5)
	assert.ErrorIs(t, err, ErrInvalidYear)
}

func TestPeriodContains(t *testing.T) {
	p := Period{Year: 2024, Month: time.February}

	assert.True(t, p.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC)))
}

func TestPeriodTrailingCrossesYearBoundary(t *testing.T) {
	got := Period{Year: 2024, Month: time.February}.Trailing(6)

	require.Len(t, got, 6)
	assert.Equal(t, Period{Year: 2023, Month: time.September}, got[0])
	assert.Equal(t, Period{Year: 2023, Month: time.December}, got[3])
	assert.Equal(t, Period{Year: 2024, Month: time.February}, got[5])
}

func TestPeriodLabel(t *testing.T) {
	assert.Equal(t, "janv.", Period{Year: 2024, Month: time.January}.Label())
	assert.Equal(t, "août", Period{Year: 2024, Month: time.August}.Label())
	assert.Equal(t, "déc.", Period{Year: 2024, Month: time.December}.Label())
	assert.Equal(t, "2024-08", Period{Year: 2024, Month: time.August}.String())
}
