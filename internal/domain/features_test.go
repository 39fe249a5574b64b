package domain

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCenter = "City Hospital"
	testCity   = "Mumbai"
)

func sampleRecord() DonationRecord {
	rec := DonationRecord{
		City:                 testCity,
		DonationCenter:       testCenter,
		BloodType:            "O-",
		IsHoliday:            true,
		Temperature:          -3,
		DonorAgeAvg:          41,
		DonorGenderMaleRatio: 1,
		HemoglobinAvg:        13.9,
		PreviousDonationsAvg: 4,
		SocialMediaCampaign:  true,
		EmergencyAppeal:      true,
		CityPopulation:       12.5,
		Donations:            88,
	}
	// Sunday, 31 August 2025.
	return rec.WithDate(time.Date(2025, time.August, 31, 0, 0, 0, 0, time.UTC))
}

func TestFitTransform(t *testing.T) {
	records := []DonationRecord{
		sampleRecord(),
		{City: "Delhi", DonationCenter: "Red Cross Center", BloodType: "A+", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Month: 1},
	}

	table, vocabs, err := FitTransform(records)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, FeatureNames(), table.Names)
	assert.Len(t, table.Names, 25)
	for _, row := range table.Rows {
		assert.Len(t, row, 25)
	}

	assert.Equal(t, []string{"Delhi", "Mumbai"}, vocabs.City.Classes())
	assert.Equal(t, []string{"A+", "O-"}, vocabs.BloodType.Classes())

	got := map[string]float64{}
	for j, name := range table.Names {
		got[name] = table.Rows[0][j]
	}
	month, dow := 8.0, 6.0
	want := map[string]float64{
		"day_of_week":             6,
		"month":                   8,
		"is_weekend":              1,
		"is_holiday":              1,
		"temperature":             -3,
		"donor_age_avg":           41,
		"donor_gender_male_ratio": 1,
		"hemoglobin_avg":          13.9,
		"previous_donations_avg":  4,
		"social_media_campaign":   1,
		"emergency_appeal":        1,
		"city_population":         12.5,
		"year":                    2025,
		"quarter":                 3,
		"day_of_year":             243,
		"city_encoded":            1,
		"center_encoded":          0,
		"blood_type_encoded":      1,
		"sin_month":               math.Sin(2 * math.Pi * month / 12),
		"cos_month":               math.Cos(2 * math.Pi * month / 12),
		"sin_day":                 math.Sin(2 * math.Pi * dow / 7),
		"cos_day":                 math.Cos(2 * math.Pi * dow / 7),
		"campaign_interaction":    1,
		"weekend_holiday":         1,
		"temp_squared":            9,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("feature row mismatch (-want +got):\n%s", diff)
	}

	t.Run("empty input", func(t *testing.T) {
		_, _, err := FitTransform(nil)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestCyclicalEncodingsOnUnitCircle(t *testing.T) {
	records, err := Generate(500, NewRandomSource(11))
	require.NoError(t, err)
	table, _, err := FitTransform(records)
	require.NoError(t, err)

	sinM, _ := table.Column("sin_month")
	cosM, _ := table.Column("cos_month")
	sinD, _ := table.Column("sin_day")
	cosD, _ := table.Column("cos_day")
	for i := range sinM {
		assert.InDelta(t, 1.0, sinM[i]*sinM[i]+cosM[i]*cosM[i], 1e-9)
		assert.InDelta(t, 1.0, sinD[i]*sinD[i]+cosD[i]*cosD[i], 1e-9)
	}
}

func TestTransformReusesVocabulary(t *testing.T) {
	train := []DonationRecord{sampleRecord()}
	other := sampleRecord()
	other.City = "Delhi"
	train = append(train, other)

	_, vocabs, err := FitTransform(train)
	require.NoError(t, err)

	// A table holding only Mumbai must still encode it as 1, not refit to 0.
	table, err := Transform([]DonationRecord{sampleRecord()}, vocabs)
	require.NoError(t, err)
	col, ok := table.Column("city_encoded")
	require.True(t, ok)
	assert.Equal(t, []float64{1}, col)

	t.Run("unknown category fails", func(t *testing.T) {
		unseen := sampleRecord()
		unseen.City = "Jaipur"
		_, err := Transform([]DonationRecord{unseen}, vocabs)
		require.ErrorIs(t, err, ErrUnknownCategory)
		assert.Contains(t, err.Error(), "encode city")
		assert.Contains(t, err.Error(), "Jaipur")
	})
}

func TestVocabularyJSON(t *testing.T) {
	v := FitVocabulary([]string{"b", "a", "c", "a"})
	assert.Equal(t, 3, v.Len())

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b","c"]`, string(data))

	var decoded Vocabulary
	require.NoError(t, json.Unmarshal(data, &decoded))
	code, err := decoded.Encode("c")
	require.NoError(t, err)
	assert.Equal(t, 2, code)

	var bad Vocabulary
	assert.Error(t, json.Unmarshal([]byte(`["b","a"]`), &bad))
}

func TestTargets(t *testing.T) {
	records := []DonationRecord{{Donations: 1.5}, {Donations: 0}, {Donations: 42}}
	assert.Equal(t, []float64{1.5, 0, 42}, Targets(records))
}

func TestFeatureTableSubset(t *testing.T) {
	table := FeatureTable{Names: []string{"x"}, Rows: [][]float64{{0}, {1}, {2}}}
	sub := table.Subset([]int{2, 0})
	assert.Equal(t, [][]float64{{2}, {0}}, sub.Rows)
	_, ok := table.Column("missing")
	assert.False(t, ok)
}

func TestCSVRoundTrip(t *testing.T) {
	freezeClock(t)
	records, err := Generate(40, NewRandomSource(5))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	decoded, err := ReadCSV(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(records, decoded); diff != "" {
		t.Errorf("csv round trip (-want +got):\n%s", diff)
	}

	t.Run("wrong header", func(t *testing.T) {
		_, err := ReadCSV(bytes.NewBufferString("a,b\n1,2\n"))
		assert.Error(t, err)
	})

	t.Run("bad number names column", func(t *testing.T) {
		row := csvRow(records[0])
		row[4] = "x"
		input := strings.Join(CSVHeader, ",") + "\n" + strings.Join(row, ",") + "\n"
		_, err := ReadCSV(strings.NewReader(input))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "day_of_week")
	})
}
