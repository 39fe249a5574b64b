package domain

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"
)

// DateLayout is the calendar date format used in CSV tables and message keys.
const DateLayout = "2006-01-02"

// CSVHeader lists the generated table columns in output order.
var CSVHeader = []string{
	"date",
	"city",
	"donation_center",
	"blood_type",
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
	"donations",
}

// WriteCSV writes records with a header row, in slice order.
func WriteCSV(w io.Writer, records []DonationRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(csvRow(r)); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func csvRow(r DonationRecord) []string {
	return []string{
		r.Date.Format(DateLayout),
		r.City,
		r.DonationCenter,
		r.BloodType,
		strconv.Itoa(r.DayOfWeek),
		strconv.Itoa(r.Month),
		strconv.FormatBool(r.IsWeekend),
		strconv.FormatBool(r.IsHoliday),
		formatFloat(r.Temperature),
		formatFloat(r.DonorAgeAvg),
		formatFloat(r.DonorGenderMaleRatio),
		formatFloat(r.HemoglobinAvg),
		strconv.Itoa(r.PreviousDonationsAvg),
		strconv.FormatBool(r.SocialMediaCampaign),
		strconv.FormatBool(r.EmergencyAppeal),
		formatFloat(r.CityPopulation),
		formatFloat(r.Donations),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadCSV parses a table written by WriteCSV. The header must match CSVHeader.
func ReadCSV(r io.Reader) ([]DonationRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if !slices.Equal(header, CSVHeader) {
		return nil, fmt.Errorf("read csv header: unexpected columns %v", header)
	}

	var records []DonationRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// rowParser accumulates the first parse error so a row can be decoded in one pass.
type rowParser struct {
	row []string
	err error
}

func (p *rowParser) intAt(i int) int {
	v, err := strconv.Atoi(p.row[i])
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", CSVHeader[i], err)
	}
	return v
}

func (p *rowParser) floatAt(i int) float64 {
	v, err := strconv.ParseFloat(p.row[i], 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", CSVHeader[i], err)
	}
	return v
}

func (p *rowParser) boolAt(i int) bool {
	v, err := strconv.ParseBool(p.row[i])
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", CSVHeader[i], err)
	}
	return v
}

func parseRow(row []string) (DonationRecord, error) {
	date, err := time.Parse(DateLayout, row[0])
	if err != nil {
		return DonationRecord{}, fmt.Errorf("date: %w", err)
	}
	p := rowParser{row: row}
	rec := DonationRecord{
		Date:                 date,
		City:                 row[1],
		DonationCenter:       row[2],
		BloodType:            row[3],
		DayOfWeek:            p.intAt(4),
		Month:                p.intAt(5),
		IsWeekend:            p.boolAt(6),
		IsHoliday:            p.boolAt(7),
		Temperature:          p.floatAt(8),
		DonorAgeAvg:          p.floatAt(9),
		DonorGenderMaleRatio: p.floatAt(10),
		HemoglobinAvg:        p.floatAt(11),
		PreviousDonationsAvg: p.intAt(12),
		SocialMediaCampaign:  p.boolAt(13),
		EmergencyAppeal:      p.boolAt(14),
		CityPopulation:       p.floatAt(15),
		Donations:            p.floatAt(16),
	}
	if p.err != nil {
		return DonationRecord{}, p.err
	}
	return rec, nil
}
