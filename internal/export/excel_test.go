package export

import (
	"bytes"
	"testing"
	"time"

	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteBookings(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	bookings := []*models.Booking{
		{ID: 2, ItemID: 7, ItemName: "Drill", BookerID: 3, Start: now.Add(24 * time.Hour), End: now.Add(48 * time.Hour), Status: models.StatusWaiting},
		{ID: 1, ItemID: 7, ItemName: "Drill", BookerID: 4, Start: now.Add(-48 * time.Hour), End: now.Add(-24 * time.Hour), Status: models.StatusApproved},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, bookings, now))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{"2", "7", "Drill", "3", "2025-06-02 12:00", "2025-06-03 12:00", "WAITING", "FUTURE"}, rows[1])
	assert.Equal(t, "PAST", rows[2][7])

	assert.Equal(t, []string{sheetName}, f.GetSheetList())
}

func TestWriteBookings_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, nil, time.Now()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestPeriod(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := &models.Booking{Start: now, End: now.Add(time.Hour)}
	// starting exactly now is neither current nor future
	assert.Equal(t, "", period(b, now))

	b.Start = now.Add(-time.Minute)
	assert.Equal(t, "CURRENT", period(b, now))
}
