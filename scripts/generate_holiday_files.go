//go:build ignore

package main

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// generateHolidayFiles writes sample gzipped holiday calendars for local runs.
// Point HOLIDAY_FILES at the output, e.g.
// HOLIDAY_FILES=data/holidays/national.gz,data/holidays/regional.gz
func main() {
	dataDir := "data/holidays"

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	calendars := map[string][]string{
		"national.gz": {
			"# national holidays",
			"2030-01-01,New Year's Day",
			"2030-01-26,Republic Day",
			"2030-08-15,Independence Day",
			"2030-10-02,Gandhi Jayanti",
			"2030-12-25,Christmas",
		},
		"regional.gz": {
			"# regional holidays",
			"2030-01-14,Makar Sankranti",
			"2030-03-20",
			"2030-11-01,State Formation Day",
		},
	}

	for filename, lines := range calendars {
		path := filepath.Join(dataDir, filename)
		if err := writeGzipFile(path, lines); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}
		fmt.Printf("Created %s with %d lines\n", path, len(lines))
	}
}

func writeGzipFile(path string, lines []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	for _, line := range lines {
		if _, err := fmt.Fprintln(gzipWriter, line); err != nil {
			return err
		}
	}
	return nil
}
