package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"driveflat/internal/model"
)

func rec(name, mime string, size int64) model.FileRecord {
	return model.FileRecord{ID: "id-" + name, Name: name, Path: name, MimeType: mime, Size: size}
}

func TestPartitionKeepsMediaOnly(t *testing.T) {
	f, err := NewFilters(nil, "", 0, 0)
	if err != nil {
		t.Fatalf("NewFilters: %v", err)
	}

	records := []model.FileRecord{
		rec("a.jpg", "image/jpeg", 100),
		rec("notes.txt", "text/plain", 100),
		rec("b.mp4", "video/mp4", 100),
	}
	included, excluded := f.Partition(records)

	assert.Equal(t, 2, len(included))
	assert.Equal(t, "a.jpg", included[0].Name)
	assert.Equal(t, "b.mp4", included[1].Name)
	assert.Equal(t, 1, len(excluded))
	assert.Equal(t, model.StatusFilteredOut, excluded[0].Status)
	assert.Contains(t, excluded[0].Message, "not a media file")
}

func TestPartitionTypeAllowList(t *testing.T) {
	f, err := NewFilters([]string{"JPG", ".png"}, "", 0, 0)
	if err != nil {
		t.Fatalf("NewFilters: %v", err)
	}

	included, excluded := f.Partition([]model.FileRecord{
		rec("a.jpg", "image/jpeg", 1),
		rec("b.png", "image/png", 1),
		rec("c.gif", "image/gif", 1),
	})
	assert.Equal(t, 2, len(included))
	assert.Equal(t, 1, len(excluded))
	assert.Equal(t, "c.gif", excluded[0].Record.Name)
}

func TestPartitionNameRegex(t *testing.T) {
	f, err := NewFilters(nil, `^IMG_\d+`, 0, 0)
	if err != nil {
		t.Fatalf("NewFilters: %v", err)
	}

	included, excluded := f.Partition([]model.FileRecord{
		rec("IMG_001.jpg", "image/jpeg", 1),
		rec("screenshot.jpg", "image/jpeg", 1),
	})
	assert.Equal(t, 1, len(included))
	assert.Equal(t, "IMG_001.jpg", included[0].Name)
	assert.Equal(t, 1, len(excluded))
}

func TestPartitionSizeBounds(t *testing.T) {
	f, err := NewFilters(nil, "", 10, 1)
	if err != nil {
		t.Fatalf("NewFilters: %v", err)
	}

	included, excluded := f.Partition([]model.FileRecord{
		rec("tiny.jpg", "image/jpeg", 5*1024),
		rec("ok.jpg", "image/jpeg", 500*1024),
		rec("huge.jpg", "image/jpeg", 2*1024*1024),
		rec("nosize.jpg", "image/jpeg", 0),
	})
	assert.Equal(t, 1, len(included))
	assert.Equal(t, "ok.jpg", included[0].Name)
	assert.Equal(t, 3, len(excluded))
}

func TestPartitionNoSizeFilterPassesUnknownSize(t *testing.T) {
	f, err := NewFilters(nil, "", 0, 0)
	if err != nil {
		t.Fatalf("NewFilters: %v", err)
	}
	included, excluded := f.Partition([]model.FileRecord{rec("nosize.jpg", "image/jpeg", 0)})
	assert.Equal(t, 1, len(included))
	assert.Equal(t, 0, len(excluded))
}

func TestPartitionCombinedPredicates(t *testing.T) {
	f, err := NewFilters([]string{"jpg"}, `holiday`, 1, 0)
	if err != nil {
		t.Fatalf("NewFilters: %v", err)
	}

	included, excluded := f.Partition([]model.FileRecord{
		rec("holiday_1.jpg", "image/jpeg", 2048),
		rec("holiday_2.png", "image/png", 2048),
		rec("work.jpg", "image/jpeg", 2048),
		rec("holiday_small.jpg", "image/jpeg", 100),
	})
	assert.Equal(t, 1, len(included))
	assert.Equal(t, "holiday_1.jpg", included[0].Name)
	assert.Equal(t, 3, len(excluded))
}

func TestNewFiltersRejectsBadRegex(t *testing.T) {
	_, err := NewFilters(nil, "([", 0, 0)
	assert.Error(t, err)
}
