package domain

import (
	"fmt"
	"math"
)

const (
	// historyDays is the width of the date window ending today.
	historyDays = 1095

	baseDonations = 50.0
	noiseSigma    = 10.0
)

// Generate produces n synthetic donation records. Draws are taken from rng in
// a fixed per-record order, so the same seed, clock and n yield the same table.
func Generate(n int, rng *RandomSource) ([]DonationRecord, error) {
	if n <= 0 {
		return nil, fmt.Errorf("generate %d records: %w", n, ErrInvalidArgument)
	}
	if rng == nil {
		return nil, fmt.Errorf("generate records: nil random source: %w", ErrInvalidArgument)
	}

	today := Today()
	drawCity := rng.Categorical(CityWeights())
	drawBloodType := rng.Categorical(BloodTypeWeights())

	records := make([]DonationRecord, n)
	for i := range records {
		var rec DonationRecord
		rec = rec.WithDate(today.AddDate(0, 0, -rng.IntN(historyDays)))

		city := Cities[drawCity()]
		rec.City = city.Name
		rec.CityPopulation = city.Population
		rec.BloodType = BloodTypes[drawBloodType()].Code
		rec.DonationCenter = DonationCenters[rng.IntN(len(DonationCenters))]

		rec.DonorAgeAvg = clamp(rng.Normal(35, 12), 18, 65)
		if rng.Bernoulli(0.55) {
			rec.DonorGenderMaleRatio = 1
		}
		rec.HemoglobinAvg = rng.Normal(13.5, 1.5)
		rec.PreviousDonationsAvg = rng.Poisson(3)

		rec.Temperature = rng.Normal(25, 8)
		rec.IsHoliday = rng.Bernoulli(0.1)
		rec.SocialMediaCampaign = rng.Bernoulli(0.3)
		rec.EmergencyAppeal = rng.Bernoulli(0.15)

		rec.Donations = math.Max(0, ExpectedDonations(rec)+rng.Normal(0, noiseSigma))
		records[i] = rec
	}
	return records, nil
}

// ExpectedDonations returns the noise-free factor-model value for rec.
func ExpectedDonations(rec DonationRecord) float64 {
	return baseDonations *
		rec.CityPopulation / 10 *
		weekendFactor(rec) *
		holidayFactor(rec) *
		seasonalFactor(rec.Month) *
		campaignFactor(rec) *
		rarityFactor(rec.BloodType) *
		weatherFactor(rec.Temperature)
}

func weekendFactor(rec DonationRecord) float64 {
	if rec.IsWeekend {
		return 1.3
	}
	return 1.0
}

func holidayFactor(rec DonationRecord) float64 {
	if rec.IsHoliday {
		return 0.7
	}
	return 1.0
}

func seasonalFactor(month int) float64 {
	switch month {
	case 12, 1, 2:
		return 1.2
	case 6, 7, 8:
		return 0.8
	default:
		return 1.0
	}
}

func campaignFactor(rec DonationRecord) float64 {
	f := 1.0
	if rec.SocialMediaCampaign {
		f *= 1.4
	}
	if rec.EmergencyAppeal {
		f *= 1.8
	}
	return f
}

func rarityFactor(code string) float64 {
	if b, ok := LookupBloodType(code); ok {
		return b.Rarity
	}
	return 1.0
}

func weatherFactor(temp float64) float64 {
	if temp < 5 || temp > 40 {
		return 0.6
	}
	return 1.0
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
