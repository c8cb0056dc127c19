package sync

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"driveflat/internal/photos"
)

// fakeAlbums implements AlbumClient over in-memory albums.
type fakeAlbums struct {
	albums map[string]string // name -> id
	items  map[string][]photos.MediaItem
	nextID int
}

func newFakeAlbums() *fakeAlbums {
	return &fakeAlbums{
		albums: make(map[string]string),
		items:  make(map[string][]photos.MediaItem),
	}
}

func (f *fakeAlbums) FindAlbumByName(ctx context.Context, name string) (string, error) {
	return f.albums[name], nil
}

func (f *fakeAlbums) CreateAlbum(ctx context.Context, name string) (string, error) {
	f.nextID++
	id := fmt.Sprintf("album-%d", f.nextID)
	f.albums[name] = id
	return id, nil
}

func (f *fakeAlbums) GetAlbum(ctx context.Context, albumID string) (*photos.Album, error) {
	for name, id := range f.albums {
		if id == albumID {
			return &photos.Album{ID: id, Title: name}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", photos.ErrAlbumNotFound, albumID)
}

func (f *fakeAlbums) ListAlbumItems(ctx context.Context, albumID string) ([]photos.MediaItem, error) {
	return f.items[albumID], nil
}

func TestProposeNameUnused(t *testing.T) {
	s := NewAlbumState("album-1")
	assert.Equal(t, "a.jpg", s.ProposeName("a.jpg"))
	assert.True(t, s.NameInUse("a.jpg"))
}

func TestProposeNameSuffixesCollisions(t *testing.T) {
	s := NewAlbumState("album-1")
	assert.Equal(t, "a.jpg", s.ProposeName("a.jpg"))
	assert.Equal(t, "a_1.jpg", s.ProposeName("a.jpg"))
	assert.Equal(t, "a_2.jpg", s.ProposeName("a.jpg"))
}

func TestProposeNameWithoutExtension(t *testing.T) {
	s := NewAlbumState("album-1")
	assert.Equal(t, "raw", s.ProposeName("raw"))
	assert.Equal(t, "raw_1", s.ProposeName("raw"))
}

func TestReleaseNameFreesReservation(t *testing.T) {
	s := NewAlbumState("album-1")
	s.ProposeName("a.jpg")
	got := s.ProposeName("a.jpg")
	assert.Equal(t, "a_1.jpg", got)

	s.ReleaseName(got)
	assert.False(t, s.NameInUse("a_1.jpg"))
	// the freed suffix is handed out again
	assert.Equal(t, "a_1.jpg", s.ProposeName("a.jpg"))
}

func TestReleaseNameDecrementsSharedNames(t *testing.T) {
	s := NewAlbumState("album-1")
	// the album can legitimately hold several items with one name
	s.RecordName("a.jpg")
	s.RecordName("a.jpg")
	s.ReleaseName("a.jpg")
	assert.True(t, s.NameInUse("a.jpg"))
	s.ReleaseName("a.jpg")
	assert.False(t, s.NameInUse("a.jpg"))
}

func TestContentSet(t *testing.T) {
	s := NewAlbumState("album-1")
	assert.False(t, s.KnownContent("m1"))
	s.AddContent("m1")
	assert.True(t, s.KnownContent("m1"))
}

func TestLoadAlbumStateByNameExisting(t *testing.T) {
	f := newFakeAlbums()
	f.albums["Holiday"] = "album-9"
	f.items["album-9"] = []photos.MediaItem{
		{ID: "m1", Filename: "a.jpg"},
		{ID: "m2", Filename: "b.jpg"},
	}

	state, err := LoadAlbumState(context.Background(), f, Target{Name: "Holiday"})
	if err != nil {
		t.Fatalf("LoadAlbumState: %v", err)
	}
	assert.Equal(t, "album-9", state.AlbumID)
	assert.True(t, state.NameInUse("a.jpg"))
	assert.True(t, state.KnownContent("m2"))
	assert.False(t, state.KnownContent("m3"))
}

func TestLoadAlbumStateCreatesMissingAlbum(t *testing.T) {
	f := newFakeAlbums()

	state, err := LoadAlbumState(context.Background(), f, Target{Name: "Fresh"})
	if err != nil {
		t.Fatalf("LoadAlbumState: %v", err)
	}
	assert.Equal(t, f.albums["Fresh"], state.AlbumID)
	assert.NotEmpty(t, state.AlbumID)
}

func TestLoadAlbumStateByIDNotFound(t *testing.T) {
	f := newFakeAlbums()

	_, err := LoadAlbumState(context.Background(), f, Target{ID: "missing"})
	assert.ErrorIs(t, err, photos.ErrAlbumNotFound)
}

func TestLoadAlbumStateAcceptsAlbumURL(t *testing.T) {
	f := newFakeAlbums()
	f.albums["Holiday"] = "abc123"

	state, err := LoadAlbumState(context.Background(), f, Target{Name: "https://photos.google.com/lr/album/abc123"})
	if err != nil {
		t.Fatalf("LoadAlbumState: %v", err)
	}
	assert.Equal(t, "abc123", state.AlbumID)
}
