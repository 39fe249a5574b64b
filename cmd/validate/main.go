// Command validate performs integrity checks on a generated donation table
// and, optionally, on a stored trained pipeline. It verifies per-record
// invariants, reproducibility from the seed, and held-out model quality.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv data/donations.csv \
//	  -seed 42 -today 2025-06-01 \
//	  -model data/pipeline.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/blood-donation-forecast/internal/adapter/store"
	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"github.com/couchcryptid/blood-donation-forecast/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
)

// historyDays mirrors the generator's date window.
const historyDays = 1095

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	skipped bool
	errors  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type options struct {
	csvPath   string
	modelPath string
	seed      uint64
	today     string
	minR2     float64
}

func main() {
	var opts options
	flag.StringVar(&opts.csvPath, "csv", "", "path to a generated donation CSV")
	flag.StringVar(&opts.modelPath, "model", "", "optional path to a stored trained pipeline")
	flag.Uint64Var(&opts.seed, "seed", 0, "seed the CSV was generated with (enables the reproducibility phase with -today)")
	flag.StringVar(&opts.today, "today", "", "anchor date the CSV was generated at (YYYY-MM-DD)")
	flag.Float64Var(&opts.minR2, "min-r2", 0.5, "minimum acceptable R² of the stored pipeline on the CSV")
	flag.Parse()

	if opts.csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(opts); code != 0 {
		os.Exit(code)
	}
}

func run(opts options) int {
	fmt.Println("=== Donation Data Integrity Validation ===")
	fmt.Println()

	records, err := loadCSV(opts.csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load CSV: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRecords(records),
		validateCalendar(records),
		validateReproducible(records, opts),
		validateModel(records, opts),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case p.skipped:
			status = "\033[33mSKIP\033[0m"
		case !p.passed():
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d\n", len(records))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadCSV(path string) ([]domain.DonationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := domain.ReadCSV(f)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no data rows in %s", path)
	}
	return records, nil
}

// ── Phase 1: Record invariants ──
// Validates categorical membership and numeric ranges per row.

func validateRecords(records []domain.DonationRecord) *phase {
	p := &phase{name: "Phase 1: Record Invariants"}

	for i := range records {
		rec := &records[i]
		line := i + 2

		pop, ok := domain.LookupCity(rec.City)
		switch {
		case !ok:
			p.errorf("line %d: unknown city %q", line, rec.City)
		case pop != rec.CityPopulation:
			p.errorf("line %d: %s population %v, want %v", line, rec.City, rec.CityPopulation, pop)
		}
		if !domain.IsDonationCenter(rec.DonationCenter) {
			p.errorf("line %d: unknown donation center %q", line, rec.DonationCenter)
		}
		if _, ok := domain.LookupBloodType(rec.BloodType); !ok {
			p.errorf("line %d: unknown blood type %q", line, rec.BloodType)
		}

		if rec.DonorAgeAvg < 18 || rec.DonorAgeAvg > 65 {
			p.errorf("line %d: donor_age_avg %v outside [18, 65]", line, rec.DonorAgeAvg)
		}
		if rec.DonorGenderMaleRatio != 0 && rec.DonorGenderMaleRatio != 1 {
			p.errorf("line %d: donor_gender_male_ratio %v is not 0 or 1", line, rec.DonorGenderMaleRatio)
		}
		if rec.PreviousDonationsAvg < 0 {
			p.errorf("line %d: previous_donations_avg %d is negative", line, rec.PreviousDonationsAvg)
		}
		if rec.Donations < 0 || math.IsNaN(rec.Donations) {
			p.errorf("line %d: donations %v is negative", line, rec.Donations)
		}
	}
	return p
}

// ── Phase 2: Calendar consistency ──
// Validates date-derived fields and the width of the date window.

func validateCalendar(records []domain.DonationRecord) *phase {
	p := &phase{name: "Phase 2: Calendar Consistency"}

	latest := records[0].Date
	for i := range records {
		if records[i].Date.After(latest) {
			latest = records[i].Date
		}
	}
	earliest := latest.AddDate(0, 0, -(historyDays - 1))

	for i := range records {
		rec := records[i]
		line := i + 2

		want := rec.WithDate(rec.Date)
		if rec.DayOfWeek != want.DayOfWeek {
			p.errorf("line %d: day_of_week %d, want %d for %s", line, rec.DayOfWeek, want.DayOfWeek, rec.Date.Format(domain.DateLayout))
		}
		if rec.Month != want.Month {
			p.errorf("line %d: month %d, want %d", line, rec.Month, want.Month)
		}
		if rec.IsWeekend != want.IsWeekend {
			p.errorf("line %d: is_weekend %t, want %t", line, rec.IsWeekend, want.IsWeekend)
		}
		if rec.Date.Before(earliest) {
			p.errorf("line %d: date %s is more than %d days before %s",
				line, rec.Date.Format(domain.DateLayout), historyDays, latest.Format(domain.DateLayout))
		}
	}
	return p
}

// ── Phase 3: Reproducibility ──
// Regenerates the table from the seed and anchor date and compares row by row.

func validateReproducible(records []domain.DonationRecord, opts options) *phase {
	p := &phase{name: "Phase 3: Reproducibility (seed + date)"}
	if opts.today == "" {
		p.skipped = true
		return p
	}

	anchor, err := time.Parse(domain.DateLayout, opts.today)
	if err != nil {
		p.errorf("parse -today: %v", err)
		return p
	}
	domain.SetClock(clockwork.NewFakeClockAt(anchor))
	defer domain.SetClock(nil)

	regenerated, err := domain.Generate(len(records), domain.NewRandomSource(opts.seed))
	if err != nil {
		p.errorf("regenerate: %v", err)
		return p
	}

	for i := range records {
		if diff := cmp.Diff(regenerated[i], records[i]); diff != "" {
			p.errorf("line %d differs from regenerated record (-want +got):\n%s", i+2, diff)
			if len(p.errors) >= 10 {
				p.errorf("stopping after %d mismatches", len(p.errors))
				break
			}
		}
	}
	return p
}

// ── Phase 4: Stored model ──
// Scores the stored pipeline on the table and checks its fit.

func validateModel(records []domain.DonationRecord, opts options) *phase {
	p := &phase{name: "Phase 4: Stored Model Quality"}
	if opts.modelPath == "" {
		p.skipped = true
		return p
	}

	logger := slog.New(slog.DiscardHandler)
	tp, err := store.NewFileStore(opts.modelPath, logger).Load(context.Background())
	if err != nil {
		p.errorf("load pipeline: %v", err)
		return p
	}
	if !tp.Trained() {
		p.errorf("stored pipeline is not trained")
		return p
	}

	table, err := domain.Transform(records, tp.Vocabularies)
	if err != nil {
		p.errorf("transform: %v", err)
		return p
	}

	eval, err := model.Evaluate(tp.Scaler, tp.Model, table.Rows, domain.Targets(records))
	if err != nil {
		p.errorf("evaluate: %v", err)
		return p
	}

	fmt.Printf("  %s: MAE %.3f, RMSE %.3f, R² %.4f\n", tp.Model.Algorithm(), eval.MAE, eval.RMSE, eval.R2)
	if math.IsNaN(eval.R2) || eval.R2 < opts.minR2 {
		p.errorf("R² %.4f below minimum %.4f", eval.R2, opts.minR2)
	}
	return p
}
