// Package urlloader reads capture targets from text or CSV files and filters
// them down to absolute HTTP(S) URLs.
package urlloader

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/root4loot/goscope"
	"github.com/root4loot/goutils/fileutil"
	"github.com/root4loot/goutils/log"
)

// Load reads URLs from path. Files with a .csv extension are parsed as CSV
// with the URL taken from the first column; anything else is treated as plain
// text with one URL per line. Only lines starting with http:// or https://
// are kept, so blank lines and comments fall out naturally. Order is
// preserved and duplicates are not removed.
func Load(path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("file not found: %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return loadCSV(path)
	}
	return loadText(path)
}

func loadText(path string) ([]string, error) {
	lines, err := fileutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return FilterValid(lines), nil
}

func loadCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // rows may have mixed column counts

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var lines []string
	for _, row := range records {
		if len(row) > 0 {
			lines = append(lines, row[0])
		}
	}
	return FilterValid(lines), nil
}

// FilterValid trims the given lines and keeps only absolute HTTP(S) URLs.
func FilterValid(lines []string) []string {
	var urls []string
	for _, line := range lines {
		u := strings.TrimSpace(line)
		if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
			urls = append(urls, u)
		}
	}
	return urls
}

// ApplyScope drops URLs excluded by the given scope. A nil scope passes
// everything through.
func ApplyScope(urls []string, scope *goscope.Scope) []string {
	if scope == nil {
		return urls
	}
	var kept []string
	for _, u := range urls {
		if scope.IsTargetExcluded(u) {
			log.Infof("Skipping excluded target %s", u)
			continue
		}
		kept = append(kept, u)
	}
	return kept
}
