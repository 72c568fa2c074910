// Command csvmix runs the incident pipeline over a CSV export and prints the
// category mix and severity tally. It can also write the normalized incidents
// as JSON, useful for producing fixtures.
//
// Usage:
//
//	go run ./cmd/csvmix \
//	  -csv data/Crime_Data_from_2020_to_Present.csv \
//	  -tz America/Los_Angeles \
//	  -out data/normalized_incidents.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/couchcryptid/la-crime-etl/internal/domain"
	"github.com/couchcryptid/la-crime-etl/internal/source"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "path to an LAPD crime data CSV export")
	tzName := flag.String("tz", "America/Los_Angeles", "IANA zone used to display occurrence times")
	crimeType := flag.String("type", "", "only include incidents of this category tag (e.g. VEHICLE)")
	limit := flag.Int("limit", 0, "stop after this many incidents (0 = all)")
	out := flag.String("out", "", "optional output path for normalized incidents JSON")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -csv")
	}

	loc, err := time.LoadLocation(*tzName)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	var category *domain.Category
	if *crimeType != "" {
		c, ok := domain.ParseCategory(*crimeType)
		if !ok {
			return fmt.Errorf("unknown category %q", *crimeType)
		}
		category = &c
	}

	records, skipped, err := readRecords(*csvPath)
	if err != nil {
		return err
	}
	log.Printf("read %d records (%d skipped for invalid coordinates)", len(records), skipped)

	normalizer := domain.NewNormalizer(domain.WithLocation(loc))
	incidents := make([]domain.Incident, 0, len(records))
	for _, rec := range records {
		inc := normalizer.Normalize(rec)
		if category != nil && inc.Category != *category {
			continue
		}
		incidents = append(incidents, inc)
		if *limit > 0 && len(incidents) >= *limit {
			break
		}
	}

	if *out != "" {
		if err := writeJSON(*out, incidents); err != nil {
			return fmt.Errorf("writing incidents: %w", err)
		}
		log.Printf("wrote %d incidents: %s", len(incidents), *out)
	}

	printMix(incidents)
	printSeverity(incidents)
	return nil
}

func readRecords(path string) ([]domain.RawRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	return source.NewCSVReader(f).ReadAll()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func printMix(incidents []domain.Incident) {
	fmt.Printf("\nCategory mix (%d incidents):\n", len(incidents))
	mix := domain.AggregateMix(incidents)
	if len(mix) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, e := range mix {
		fmt.Printf("  %-26s %3d%%\n", e.Category.Label(), e.Percentage)
	}
}

func printSeverity(incidents []domain.Incident) {
	counts := domain.SeverityCounts(incidents)
	fmt.Printf("\nSeverity:\n")
	for _, s := range domain.Severities() {
		fmt.Printf("  %-8s %d\n", s, counts[s])
	}
}
