package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"driveflat/internal/photos"
)

// AlbumClient is the subset of the target service needed to resolve
// and probe the destination album.
type AlbumClient interface {
	FindAlbumByName(ctx context.Context, name string) (string, error)
	CreateAlbum(ctx context.Context, name string) (string, error)
	GetAlbum(ctx context.Context, albumID string) (*photos.Album, error)
	ListAlbumItems(ctx context.Context, albumID string) ([]photos.MediaItem, error)
}

// Target names the destination album either by display name (created
// when missing, album URLs accepted) or by ID (must exist).
type Target struct {
	Name string
	ID   string
}

// AlbumState is the run-scoped view of the destination album: which
// display names are taken and which content identities are already
// present. It grows append-only during a run and is owned by a single
// goroutine.
type AlbumState struct {
	AlbumID string

	nameCount map[string]int
	content   map[string]struct{}
}

// NewAlbumState builds empty state for an album.
func NewAlbumState(albumID string) *AlbumState {
	return &AlbumState{
		AlbumID:   albumID,
		nameCount: make(map[string]int),
		content:   make(map[string]struct{}),
	}
}

// LoadAlbumState resolves the target album and pre-populates the state
// from its current contents. This pre-population is what lets a file
// already imported by a previous run be recognized without keeping any
// local records.
func LoadAlbumState(ctx context.Context, client AlbumClient, target Target) (*AlbumState, error) {
	logger := logutil.GetLogger(ctx)

	albumID := target.ID
	if albumID == "" {
		if id := photos.ParseAlbumURL(target.Name); id != "" {
			albumID = id
		}
	}

	switch {
	case albumID != "":
		if _, err := client.GetAlbum(ctx, albumID); err != nil {
			return nil, err
		}
	default:
		id, err := client.FindAlbumByName(ctx, target.Name)
		if err != nil {
			return nil, fmt.Errorf("find album %q: %w", target.Name, err)
		}
		if id == "" {
			id, err = client.CreateAlbum(ctx, target.Name)
			if err != nil {
				return nil, fmt.Errorf("create album %q: %w", target.Name, err)
			}
			logger.Info("created album", zap.String("name", target.Name), zap.String("album_id", id))
		} else {
			logger.Info("found existing album", zap.String("name", target.Name), zap.String("album_id", id))
		}
		albumID = id
	}

	state := NewAlbumState(albumID)
	items, err := client.ListAlbumItems(ctx, albumID)
	if err != nil {
		return nil, fmt.Errorf("load album contents %s: %w", albumID, err)
	}
	for _, item := range items {
		state.RecordName(item.Filename)
		state.AddContent(item.ID)
	}
	logger.Info("album state loaded",
		zap.String("album_id", albumID),
		zap.Int("existing_items", len(items)),
	)
	return state, nil
}

// RecordName marks a display name as occupied by one more item.
func (s *AlbumState) RecordName(name string) {
	if name == "" {
		return
	}
	s.nameCount[name]++
}

// ProposeName reserves a destination name for an upload. An unused
// name is claimed as-is; a taken name gets the lowest free numeric
// suffix before the extension. The reservation must later be confirmed
// implicitly (kept) or revoked with ReleaseName.
func (s *AlbumState) ProposeName(name string) string {
	if s.nameCount[name] == 0 {
		s.nameCount[name] = 1
		return name
	}
	base, ext := splitExt(name)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if s.nameCount[candidate] == 0 {
			s.nameCount[candidate] = 1
			return candidate
		}
	}
}

// ReleaseName revokes a reservation made by ProposeName, used when an
// upload turned out to be a content duplicate and added nothing.
func (s *AlbumState) ReleaseName(name string) {
	if s.nameCount[name] <= 1 {
		delete(s.nameCount, name)
		return
	}
	s.nameCount[name]--
}

// NameInUse reports whether a display name is currently claimed.
func (s *AlbumState) NameInUse(name string) bool {
	return s.nameCount[name] > 0
}

// KnownContent reports whether a content identity is already in the
// album (pre-existing or imported earlier in this run).
func (s *AlbumState) KnownContent(id string) bool {
	_, ok := s.content[id]
	return ok
}

// AddContent registers a newly imported content identity.
func (s *AlbumState) AddContent(id string) {
	if id == "" {
		return
	}
	s.content[id] = struct{}{}
}

func splitExt(name string) (string, string) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx:]
}
