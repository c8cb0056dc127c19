package sync

import (
	"fmt"
	"regexp"
	"strings"

	"driveflat/internal/model"
)

// Filters holds the user supplied inclusion predicates. Every set
// predicate must pass for a record to be included.
type Filters struct {
	// Types is an extension allow-list without dots, lower case.
	Types []string
	// NameRegex must match somewhere in the display name.
	NameRegex *regexp.Regexp
	// MinSizeKB / MaxSizeMB bound the file size when positive.
	MinSizeKB int64
	MaxSizeMB int64
}

// NewFilters parses the raw CLI filter values. An invalid regex is a
// configuration error surfaced before any processing starts.
func NewFilters(types []string, nameRegex string, minSizeKB, maxSizeMB int64) (Filters, error) {
	f := Filters{MinSizeKB: minSizeKB, MaxSizeMB: maxSizeMB}
	for _, t := range types {
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(t, ".")))
		if t != "" {
			f.Types = append(f.Types, t)
		}
	}
	if nameRegex != "" {
		re, err := regexp.Compile(nameRegex)
		if err != nil {
			return Filters{}, fmt.Errorf("invalid name regex %q: %w", nameRegex, err)
		}
		f.NameRegex = re
	}
	return f, nil
}

// Partition splits records into the included sequence, order intact,
// and ready-made outcomes for everything excluded. Excluded files
// never reach the target service and never claim a destination name.
func (f Filters) Partition(records []model.FileRecord) ([]model.FileRecord, []model.Outcome) {
	included := make([]model.FileRecord, 0, len(records))
	var excluded []model.Outcome
	for _, rec := range records {
		if reason, ok := f.exclude(rec); ok {
			excluded = append(excluded, model.Outcome{
				Record:  rec,
				Status:  model.StatusFilteredOut,
				Message: reason,
			})
			continue
		}
		included = append(included, rec)
	}
	return included, excluded
}

func (f Filters) exclude(rec model.FileRecord) (string, bool) {
	if !rec.IsMedia() {
		return fmt.Sprintf("not a media file (%s)", rec.MimeType), true
	}
	if len(f.Types) > 0 && !f.typeAllowed(rec.Name) {
		return "file type not allowed", true
	}
	if f.NameRegex != nil && !f.NameRegex.MatchString(rec.Name) {
		return "name does not match filter", true
	}
	if f.MinSizeKB > 0 || f.MaxSizeMB > 0 {
		if rec.Size <= 0 {
			return "no size information", true
		}
		if f.MinSizeKB > 0 && rec.Size < f.MinSizeKB*1024 {
			return fmt.Sprintf("below minimum size (%d bytes)", rec.Size), true
		}
		if f.MaxSizeMB > 0 && rec.Size > f.MaxSizeMB*1024*1024 {
			return fmt.Sprintf("above maximum size (%d bytes)", rec.Size), true
		}
	}
	return "", false
}

func (f Filters) typeAllowed(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range f.Types {
		if strings.HasSuffix(lower, "."+ext) {
			return true
		}
	}
	return false
}
