package model

import (
	"fmt"
	"strings"
)

// Status classifies the outcome of processing one source file.
type Status string

const (
	// StatusFilteredOut marks files rejected by the filter stage before
	// any transfer was attempted.
	StatusFilteredOut Status = "filtered"
	// StatusImported marks files uploaded and added to the album under
	// their original name.
	StatusImported Status = "imported"
	// StatusRenamedImported marks files imported under a collision
	// suffixed name.
	StatusRenamedImported Status = "renamed-imported"
	// StatusDuplicateContent marks files whose bytes already exist in
	// the album.
	StatusDuplicateContent Status = "duplicate-content"
	// StatusErrorSkipped marks files skipped after a transfer failure.
	StatusErrorSkipped Status = "error-skipped"
)

// FileRecord identifies one file discovered in the source folder tree.
// Records are immutable once emitted by the walker. Path is the
// slash-joined virtual location inside the tree and is used for
// logging only, never for destination naming.
type FileRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	MD5      string `json:"md5"`
}

// IsMedia reports whether the file is a photo or a video.
func (r FileRecord) IsMedia() bool {
	return strings.HasPrefix(r.MimeType, "image/") || strings.HasPrefix(r.MimeType, "video/")
}

// Outcome is the final result of processing one file. Exactly one
// outcome exists per record that entered the pipeline.
type Outcome struct {
	Record      FileRecord `json:"record"`
	DestName    string     `json:"dest_name"`
	Status      Status     `json:"status"`
	MediaItemID string     `json:"media_item_id,omitempty"`
	Message     string     `json:"message,omitempty"`
}

// Summary tallies outcomes per status.
type Summary struct {
	Total      int `json:"total"`
	Imported   int `json:"imported"`
	Renamed    int `json:"renamed"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
	Filtered   int `json:"filtered"`
}

// Add counts one outcome into the summary.
func (s *Summary) Add(o Outcome) {
	s.Total++
	switch o.Status {
	case StatusImported:
		s.Imported++
	case StatusRenamedImported:
		s.Renamed++
	case StatusDuplicateContent:
		s.Duplicates++
	case StatusErrorSkipped:
		s.Errors++
	case StatusFilteredOut:
		s.Filtered++
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("%d processed: %d imported, %d renamed, %d duplicate, %d errors, %d filtered",
		s.Total, s.Imported, s.Renamed, s.Duplicates, s.Errors, s.Filtered)
}
