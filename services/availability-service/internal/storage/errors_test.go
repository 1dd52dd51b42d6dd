package storage

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01"})))
	assert.False(t, IsConflict(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsConflict(nil))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", pgx.ErrNoRows)))
	assert.False(t, IsNotFound(fmt.Errorf("boom")))
}

func TestWeekdayFromMinutes(t *testing.T) {
	lunchStart, lunchEnd := 720, 750
	day, err := weekdayFromMinutes(0, true, 420, 990, &lunchStart, &lunchEnd)
	assert.NoError(t, err)
	assert.Equal(t, 7, day.DayStart.Hour)
	assert.Equal(t, 30, day.DayEnd.Minute)
	assert.True(t, day.HasLunch())

	_, err = weekdayFromMinutes(2, true, 420, 2000, nil, nil)
	assert.ErrorContains(t, err, "wednesday.day_end")
}
