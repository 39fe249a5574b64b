package domain

import "time"

// DonationRecord is one day of donations at one center for one blood type.
type DonationRecord struct {
	Date                 time.Time `json:"date"`
	City                 string    `json:"city"`
	DonationCenter       string    `json:"donation_center"`
	BloodType            string    `json:"blood_type"`
	DayOfWeek            int       `json:"day_of_week"` // 0 = Monday
	Month                int       `json:"month"`
	IsWeekend            bool      `json:"is_weekend"`
	IsHoliday            bool      `json:"is_holiday"`
	Temperature          float64   `json:"temperature"` // °C
	DonorAgeAvg          float64   `json:"donor_age_avg"`
	DonorGenderMaleRatio float64   `json:"donor_gender_male_ratio"`
	HemoglobinAvg        float64   `json:"hemoglobin_avg"`
	PreviousDonationsAvg int       `json:"previous_donations_avg"`
	SocialMediaCampaign  bool      `json:"social_media_campaign"`
	EmergencyAppeal      bool      `json:"emergency_appeal"`
	CityPopulation       float64   `json:"city_population"` // millions
	Donations            float64   `json:"donations"`
}

// WithDate returns a copy of the record moved to date, with the date-derived
// calendar fields recomputed. All other fields are kept as they are.
func (r DonationRecord) WithDate(date time.Time) DonationRecord {
	r.Date = truncateDay(date)
	r.DayOfWeek = DayOfWeek(r.Date)
	r.Month = int(r.Date.Month())
	r.IsWeekend = r.DayOfWeek >= 5
	return r
}

// DayOfWeek returns the weekday of t with Monday as 0 and Sunday as 6.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ForecastPoint is a single predicted day.
type ForecastPoint struct {
	Date               time.Time `json:"date"`
	PredictedDonations float64   `json:"predicted_donations"`
}

// ForecastBatch is one run's forecast as handed to publishers.
type ForecastBatch struct {
	RunID       string
	GeneratedAt time.Time
	Points      []ForecastPoint
}
