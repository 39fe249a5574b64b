package domain

import (
	"fmt"
	"math"
	"slices"
)

var featureNames = []string{
	"day_of_week",
	"month",
	"is_weekend",
	"is_holiday",
	"temperature",
	"donor_age_avg",
	"donor_gender_male_ratio",
	"hemoglobin_avg",
	"previous_donations_avg",
	"social_media_campaign",
	"emergency_appeal",
	"city_population",
	"year",
	"quarter",
	"day_of_year",
	"city_encoded",
	"center_encoded",
	"blood_type_encoded",
	"sin_month",
	"cos_month",
	"sin_day",
	"cos_day",
	"campaign_interaction",
	"weekend_holiday",
	"temp_squared",
}

// FeatureNames returns the model input columns in their fixed order.
func FeatureNames() []string {
	return slices.Clone(featureNames)
}

// FeatureTable is a dense row-major matrix of model inputs with named columns.
type FeatureTable struct {
	Names []string
	Rows  [][]float64
}

// Len returns the number of rows.
func (t FeatureTable) Len() int { return len(t.Rows) }

// Column returns a copy of the named column.
func (t FeatureTable) Column(name string) ([]float64, bool) {
	j := slices.Index(t.Names, name)
	if j < 0 {
		return nil, false
	}
	col := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		col[i] = row[j]
	}
	return col, true
}

// Subset returns the rows at idx, in idx order. Rows are shared, not copied.
func (t FeatureTable) Subset(idx []int) FeatureTable {
	rows := make([][]float64, len(idx))
	for i, k := range idx {
		rows[i] = t.Rows[k]
	}
	return FeatureTable{Names: t.Names, Rows: rows}
}

// FitTransform fits vocabularies on records and derives their feature table.
func FitTransform(records []DonationRecord) (FeatureTable, Vocabularies, error) {
	if len(records) == 0 {
		return FeatureTable{}, Vocabularies{}, fmt.Errorf("fit features: no records: %w", ErrInvalidArgument)
	}
	vocabs := FitVocabularies(records)
	table, err := Transform(records, vocabs)
	if err != nil {
		return FeatureTable{}, Vocabularies{}, err
	}
	return table, vocabs, nil
}

// Transform derives the feature table for records using previously fitted
// vocabularies.
func Transform(records []DonationRecord, vocabs Vocabularies) (FeatureTable, error) {
	rows := make([][]float64, len(records))
	for i, rec := range records {
		row, err := featureRow(rec, vocabs)
		if err != nil {
			return FeatureTable{}, fmt.Errorf("transform record %d: %w", i, err)
		}
		rows[i] = row
	}
	return FeatureTable{Names: FeatureNames(), Rows: rows}, nil
}

// Targets extracts the donations column.
func Targets(records []DonationRecord) []float64 {
	y := make([]float64, len(records))
	for i, r := range records {
		y[i] = r.Donations
	}
	return y
}

func featureRow(rec DonationRecord, vocabs Vocabularies) ([]float64, error) {
	city, err := vocabs.City.Encode(rec.City)
	if err != nil {
		return nil, fmt.Errorf("encode city: %w", err)
	}
	center, err := vocabs.DonationCenter.Encode(rec.DonationCenter)
	if err != nil {
		return nil, fmt.Errorf("encode donation_center: %w", err)
	}
	bloodType, err := vocabs.BloodType.Encode(rec.BloodType)
	if err != nil {
		return nil, fmt.Errorf("encode blood_type: %w", err)
	}

	month := float64(rec.Month)
	dow := float64(rec.DayOfWeek)
	monthAngle := 2 * math.Pi * month / 12
	dayAngle := 2 * math.Pi * dow / 7

	return []float64{
		dow,
		month,
		boolToFloat(rec.IsWeekend),
		boolToFloat(rec.IsHoliday),
		rec.Temperature,
		rec.DonorAgeAvg,
		rec.DonorGenderMaleRatio,
		rec.HemoglobinAvg,
		float64(rec.PreviousDonationsAvg),
		boolToFloat(rec.SocialMediaCampaign),
		boolToFloat(rec.EmergencyAppeal),
		rec.CityPopulation,
		float64(rec.Date.Year()),
		float64((rec.Month-1)/3 + 1),
		float64(rec.Date.YearDay()),
		float64(city),
		float64(center),
		float64(bloodType),
		math.Sin(monthAngle),
		math.Cos(monthAngle),
		math.Sin(dayAngle),
		math.Cos(dayAngle),
		boolToFloat(rec.SocialMediaCampaign && rec.EmergencyAppeal),
		boolToFloat(rec.IsWeekend && rec.IsHoliday),
		rec.Temperature * rec.Temperature,
	}, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
