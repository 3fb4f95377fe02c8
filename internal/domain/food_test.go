package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFoodItem_DerivedExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) FoodItem {
		return FoodItem{Status: StatusAvailable, ExpiryDate: now.Add(d)}
	}

	tests := []struct {
		name    string
		left    time.Duration
		soon    bool
		expired bool
	}{
		{"two days left", 48 * time.Hour, false, false},
		{"just over a day", 24*time.Hour + time.Second, false, false},
		{"exactly a day", 24 * time.Hour, true, false},
		{"one minute", time.Minute, true, false},
		{"at expiry", 0, false, true},
		{"past", -time.Hour, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := at(tt.left)
			assert.Equal(t, tt.soon, f.ExpiringSoon(now))
			assert.Equal(t, tt.expired, f.Expired(now))
		})
	}

	claimed := at(-time.Hour)
	claimed.Status = StatusClaimed
	assert.Equal(t, StatusClaimed, claimed.EffectiveStatus(now), "only available items expire")
}
