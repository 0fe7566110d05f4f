package checkin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	now := time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)

	req := &CreateDailyCheckinRequest{Reflection: "solid morning"}
	day, err := req.Normalize(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), day)
	assert.Equal(t, 3, req.EnergyLevel)
}

func TestNormalizeExplicitDate(t *testing.T) {
	req := &CreateDailyCheckinRequest{CheckinDate: "2026-08-29", EnergyLevel: 5}
	day, err := req.Normalize(time.Now())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), day)
	assert.Equal(t, 5, req.EnergyLevel)
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	_, err := (&CreateDailyCheckinRequest{EnergyLevel: 6}).Normalize(time.Now())
	assert.Error(t, err)

	_, err = (&CreateDailyCheckinRequest{EnergyLevel: -1}).Normalize(time.Now())
	assert.Error(t, err)

	_, err = (&CreateDailyCheckinRequest{TasksPlanned: -2}).Normalize(time.Now())
	assert.Error(t, err)

	_, err = (&CreateDailyCheckinRequest{CheckinDate: "29/08/2026"}).Normalize(time.Now())
	assert.Error(t, err)
}

func TestValidEnergyLevel(t *testing.T) {
	assert.True(t, ValidEnergyLevel(1))
	assert.True(t, ValidEnergyLevel(5))
	assert.False(t, ValidEnergyLevel(0))
	assert.False(t, ValidEnergyLevel(6))
}
