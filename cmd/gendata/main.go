// Command gendata writes a synthetic donation table as CSV. The output is the
// same table a service run with the same seed and date would train on.
//
// Usage:
//
//	go run ./cmd/gendata -n 2000 -seed 42 -today 2025-06-01 -out data/donations.csv
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	n := flag.Int("n", 2000, "number of records to generate")
	seed := flag.Uint64("seed", 42, "random seed")
	today := flag.String("today", "", "anchor date (YYYY-MM-DD); defaults to the current date")
	out := flag.String("out", "", "output CSV path; stdout when empty")
	flag.Parse()

	if *today != "" {
		anchor, err := time.Parse(domain.DateLayout, *today)
		if err != nil {
			return fmt.Errorf("parse -today: %w", err)
		}
		// Fix the clock so the date window is reproducible.
		domain.SetClock(clockwork.NewFakeClockAt(anchor))
		defer domain.SetClock(nil)
	}

	records, err := domain.Generate(*n, domain.NewRandomSource(*seed))
	if err != nil {
		return err
	}

	if *out == "" {
		return writeCSV(os.Stdout, records)
	}
	if err := writeFile(*out, records); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	log.Printf("wrote %d records: %s", len(records), *out)

	printStats(records)
	return nil
}

func writeFile(path string, records []domain.DonationRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := writeCSV(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeCSV(w io.Writer, records []domain.DonationRecord) error {
	bw := bufio.NewWriter(w)
	if err := domain.WriteCSV(bw, records); err != nil {
		return err
	}
	return bw.Flush()
}

// printStats logs per-category counts and the overall donation mean.
func printStats(records []domain.DonationRecord) {
	cities := map[string]int{}
	bloodTypes := map[string]int{}
	var total float64
	for i := range records {
		cities[records[i].City]++
		bloodTypes[records[i].BloodType]++
		total += records[i].Donations
	}

	log.Printf("mean donations: %.2f", total/float64(len(records)))
	printCounts("city", cities)
	printCounts("blood type", bloodTypes)
}

func printCounts(label string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		log.Printf("  %s %-14s %d", label, k, counts[k])
	}
}
