package domain

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.March, 14, 15, 30, 0, 0, time.UTC)

func freezeClock(t *testing.T) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(testNow))
	t.Cleanup(func() { SetClock(nil) })
}

func TestGenerate(t *testing.T) {
	freezeClock(t)

	t.Run("invariants hold for every record", func(t *testing.T) {
		records, err := Generate(2000, NewRandomSource(42))
		require.NoError(t, err)
		require.Len(t, records, 2000)

		today := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
		earliest := today.AddDate(0, 0, -(historyDays - 1))
		for _, r := range records {
			assert.GreaterOrEqual(t, r.Donations, 0.0)
			assert.GreaterOrEqual(t, r.DonorAgeAvg, 18.0)
			assert.LessOrEqual(t, r.DonorAgeAvg, 65.0)
			assert.False(t, r.Date.After(today), "date %s after today", r.Date)
			assert.False(t, r.Date.Before(earliest), "date %s before window", r.Date)
			assert.Equal(t, DayOfWeek(r.Date), r.DayOfWeek)
			assert.Equal(t, int(r.Date.Month()), r.Month)
			assert.Equal(t, r.DayOfWeek >= 5, r.IsWeekend)
			assert.GreaterOrEqual(t, r.PreviousDonationsAvg, 0)
			assert.Contains(t, []float64{0, 1}, r.DonorGenderMaleRatio)

			pop, ok := LookupCity(r.City)
			assert.True(t, ok, "unknown city %q", r.City)
			assert.Equal(t, pop, r.CityPopulation)
			_, ok = LookupBloodType(r.BloodType)
			assert.True(t, ok, "unknown blood type %q", r.BloodType)
			assert.True(t, IsDonationCenter(r.DonationCenter), "unknown center %q", r.DonationCenter)
		}
	})

	t.Run("same seed reproduces the table", func(t *testing.T) {
		a, err := Generate(300, NewRandomSource(7))
		require.NoError(t, err)
		b, err := Generate(300, NewRandomSource(7))
		require.NoError(t, err)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("tables differ (-first +second):\n%s", diff)
		}
	})

	t.Run("different seeds differ", func(t *testing.T) {
		a, err := Generate(50, NewRandomSource(1))
		require.NoError(t, err)
		b, err := Generate(50, NewRandomSource(2))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("frequent blood types dominate", func(t *testing.T) {
		records, err := Generate(5000, NewRandomSource(3))
		require.NoError(t, err)
		counts := map[string]int{}
		for _, r := range records {
			counts[r.BloodType]++
		}
		assert.Greater(t, counts["O+"], counts["AB-"])
		assert.Greater(t, counts["A+"], counts["B-"])
		assert.InDelta(t, 0.374, float64(counts["O+"])/5000, 0.03)
	})

	for _, n := range []int{0, -1} {
		_, err := Generate(n, NewRandomSource(1))
		assert.ErrorIs(t, err, ErrInvalidArgument, "n=%d", n)
	}

	t.Run("nil source", func(t *testing.T) {
		_, err := Generate(10, nil)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestExpectedDonations(t *testing.T) {
	base := DonationRecord{
		CityPopulation: 10,
		BloodType:      "O+",
		Month:          4,
		Temperature:    20,
	}

	tests := []struct {
		name   string
		modify func(*DonationRecord)
		want   float64
	}{
		{"baseline", func(*DonationRecord) {}, 50},
		{"city population scales linearly", func(r *DonationRecord) { r.CityPopulation = 5 }, 25},
		{"weekend", func(r *DonationRecord) { r.IsWeekend = true }, 65},
		{"holiday", func(r *DonationRecord) { r.IsHoliday = true }, 35},
		{"winter", func(r *DonationRecord) { r.Month = 1 }, 60},
		{"summer", func(r *DonationRecord) { r.Month = 7 }, 40},
		{"social campaign", func(r *DonationRecord) { r.SocialMediaCampaign = true }, 70},
		{"emergency appeal", func(r *DonationRecord) { r.EmergencyAppeal = true }, 90},
		{"campaigns compound", func(r *DonationRecord) { r.SocialMediaCampaign, r.EmergencyAppeal = true, true }, 126},
		{"rare blood type", func(r *DonationRecord) { r.BloodType = "AB-" }, 80},
		{"cold weather", func(r *DonationRecord) { r.Temperature = 4.9 }, 30},
		{"hot weather", func(r *DonationRecord) { r.Temperature = 40.1 }, 30},
		{"boundary temperature is mild", func(r *DonationRecord) { r.Temperature = 40 }, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := base
			tt.modify(&rec)
			assert.InDelta(t, tt.want, ExpectedDonations(rec), 1e-9)
		})
	}
}

func TestProbabilityTables(t *testing.T) {
	var sum float64
	for _, w := range BloodTypeWeights() {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	sum = 0
	for _, w := range CityWeights() {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Len(t, BloodTypes, 8)
	assert.Len(t, Cities, 8)
	assert.Len(t, DonationCenters, 5)
}

func TestWithDate(t *testing.T) {
	rec := DonationRecord{City: "Pune", Temperature: 12.5}

	sat := rec.WithDate(time.Date(2025, time.March, 15, 18, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC), sat.Date)
	assert.Equal(t, 5, sat.DayOfWeek)
	assert.True(t, sat.IsWeekend)
	assert.Equal(t, 3, sat.Month)
	assert.Equal(t, "Pune", sat.City)
	assert.Equal(t, 12.5, sat.Temperature)

	mon := rec.WithDate(time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, mon.DayOfWeek)
	assert.False(t, mon.IsWeekend)
}

func TestRandomSourceDerive(t *testing.T) {
	parent := NewRandomSource(42)
	a := parent.Derive(3)
	parent.Float64()
	b := parent.Derive(3)

	assert.Equal(t, a.Seed(), b.Seed())
	assert.Equal(t, a.Float64(), b.Float64())
	assert.NotEqual(t, parent.Derive(3).Seed(), parent.Derive(4).Seed())
}

func TestRandomSourcePoisson(t *testing.T) {
	rng := NewRandomSource(9)
	var sum int
	for range 4000 {
		v := rng.Poisson(3)
		require.GreaterOrEqual(t, v, 0)
		sum += v
	}
	assert.InDelta(t, 3.0, float64(sum)/4000, 0.15)
	assert.False(t, math.IsNaN(rng.Normal(0, 1)))
}
