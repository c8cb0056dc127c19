package photos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"driveflat/internal/retry"
)

const defaultBaseURL = "https://photoslibrary.googleapis.com"

// ErrAlbumNotFound is returned when a target album ID does not resolve.
var ErrAlbumNotFound = errors.New("album not found")

// Album is the subset of the albums resource the tool uses.
type Album struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ProductURL string `json:"productUrl"`
}

// MediaItem identifies one item already in the album. ID doubles as
// the content-identity token: the service returns the identical ID for
// byte-identical uploads regardless of filename.
type MediaItem struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

type listAlbumsResponse struct {
	Albums        []Album `json:"albums"`
	NextPageToken string  `json:"nextPageToken"`
}

type searchMediaItemsRequest struct {
	AlbumID   string `json:"albumId"`
	PageSize  int64  `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

type searchMediaItemsResponse struct {
	MediaItems    []MediaItem `json:"mediaItems"`
	NextPageToken string      `json:"nextPageToken"`
}

type batchCreateRequest struct {
	NewMediaItems []newMediaItem `json:"newMediaItems"`
}

type newMediaItem struct {
	Description     string          `json:"description,omitempty"`
	SimpleMediaItem simpleMediaItem `json:"simpleMediaItem"`
}

type simpleMediaItem struct {
	FileName    string `json:"fileName"`
	UploadToken string `json:"uploadToken"`
}

type batchCreateResponse struct {
	NewMediaItemResults []struct {
		Status struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"status"`
		MediaItem *MediaItem `json:"mediaItem"`
	} `json:"newMediaItemResults"`
}

type batchAddRequest struct {
	MediaItemIDs []string `json:"mediaItemIds"`
}

// Client talks to the Photos Library API over an authorized http
// client, routing every request through the shared retry caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	caller     *retry.Caller
	pageSize   int64
}

// New builds a Photos client.
func New(httpClient *http.Client, caller *retry.Caller, pageSize int64) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
		caller:     caller,
		pageSize:   pageSize,
	}
}

// FindAlbumByName pages through the caller's albums and returns the ID
// of the first exact title match, or "" when no album matches.
func (c *Client) FindAlbumByName(ctx context.Context, name string) (string, error) {
	pageToken := ""
	for {
		endpoint := fmt.Sprintf("%s/v1/albums?pageSize=%d", c.baseURL, c.pageSize)
		if pageToken != "" {
			endpoint += "&pageToken=" + pageToken
		}

		var res listAlbumsResponse
		if err := c.doJSON(ctx, "photos.albums.list", http.MethodGet, endpoint, nil, &res); err != nil {
			return "", fmt.Errorf("list albums: %w", err)
		}
		for _, album := range res.Albums {
			if album.Title == name {
				return album.ID, nil
			}
		}
		if res.NextPageToken == "" {
			return "", nil
		}
		pageToken = res.NextPageToken
	}
}

// CreateAlbum creates a new album and returns its ID.
func (c *Client) CreateAlbum(ctx context.Context, name string) (string, error) {
	body := map[string]any{"album": map[string]string{"title": name}}

	var album Album
	if err := c.doJSON(ctx, "photos.albums.create", http.MethodPost, c.baseURL+"/v1/albums", body, &album); err != nil {
		return "", fmt.Errorf("create album %q: %w", name, err)
	}
	return album.ID, nil
}

// GetAlbum resolves an album by ID. A 400/404 from the service is
// reported as ErrAlbumNotFound.
func (c *Client) GetAlbum(ctx context.Context, albumID string) (*Album, error) {
	var album Album
	err := c.doJSON(ctx, "photos.albums.get", http.MethodGet, c.baseURL+"/v1/albums/"+albumID, nil, &album)
	if err != nil {
		var serr *statusError
		if errors.As(err, &serr) && (serr.status == http.StatusNotFound || serr.status == http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %s", ErrAlbumNotFound, albumID)
		}
		return nil, fmt.Errorf("get album %s: %w", albumID, err)
	}
	return &album, nil
}

// ListAlbumItems pages through every media item currently in the album.
func (c *Client) ListAlbumItems(ctx context.Context, albumID string) ([]MediaItem, error) {
	var items []MediaItem
	pageToken := ""
	for {
		req := searchMediaItemsRequest{AlbumID: albumID, PageSize: c.pageSize, PageToken: pageToken}

		var res searchMediaItemsResponse
		if err := c.doJSON(ctx, "photos.mediaitems.search", http.MethodPost, c.baseURL+"/v1/mediaItems:search", req, &res); err != nil {
			return nil, fmt.Errorf("list album items %s: %w", albumID, err)
		}
		items = append(items, res.MediaItems...)
		if res.NextPageToken == "" {
			return items, nil
		}
		pageToken = res.NextPageToken
	}
}

// Upload pushes raw bytes and creates a media item under filename. The
// returned media item ID is the content-identity token: uploading
// byte-identical content yields the ID of the already existing item.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var token string
	err := c.caller.Do(ctx, "photos.uploads", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/uploads", bytes.NewReader(data))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		req.Header.Set("X-Goog-Upload-File-Name", filename)
		req.Header.Set("X-Goog-Upload-Protocol", "raw")

		res, err := c.httpClient.Do(req)
		if err != nil {
			return retry.Classify(err)
		}
		defer res.Body.Close()

		body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
		if err != nil {
			return retry.Retryable(err)
		}
		if res.StatusCode != http.StatusOK {
			return retry.ClassifyStatus(res.StatusCode, &statusError{
				op:     "upload bytes",
				status: res.StatusCode,
				body:   strings.TrimSpace(string(body)),
			})
		}
		token = strings.TrimSpace(string(body))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	if token == "" {
		return "", fmt.Errorf("upload %s: empty upload token", filename)
	}

	createReq := batchCreateRequest{
		NewMediaItems: []newMediaItem{{
			SimpleMediaItem: simpleMediaItem{FileName: filename, UploadToken: token},
		}},
	}
	var createRes batchCreateResponse
	if err := c.doJSON(ctx, "photos.mediaitems.batchcreate", http.MethodPost, c.baseURL+"/v1/mediaItems:batchCreate", createReq, &createRes); err != nil {
		return "", fmt.Errorf("create media item %s: %w", filename, err)
	}
	if len(createRes.NewMediaItemResults) == 0 {
		return "", fmt.Errorf("create media item %s: empty result", filename)
	}
	result := createRes.NewMediaItemResults[0]
	if result.MediaItem == nil || result.MediaItem.ID == "" {
		return "", fmt.Errorf("create media item %s: %s", filename, result.Status.Message)
	}
	return result.MediaItem.ID, nil
}

// AddToAlbum appends a created media item to the album.
func (c *Client) AddToAlbum(ctx context.Context, albumID, mediaItemID string) error {
	body := batchAddRequest{MediaItemIDs: []string{mediaItemID}}
	endpoint := fmt.Sprintf("%s/v1/albums/%s:batchAddMediaItems", c.baseURL, albumID)
	if err := c.doJSON(ctx, "photos.albums.batchadd", http.MethodPost, endpoint, body, nil); err != nil {
		return fmt.Errorf("add %s to album %s: %w", mediaItemID, albumID, err)
	}
	return nil
}

// AlbumURL returns the browsable URL of an album.
func AlbumURL(albumID string) string {
	return "https://photos.google.com/lr/album/" + albumID
}

var albumURLPattern = regexp.MustCompile(`/album/([a-zA-Z0-9_-]+)`)

// ParseAlbumURL extracts an album ID from a Photos album URL, or ""
// when the input is not a URL (meaning it should be treated as a name).
func ParseAlbumURL(s string) string {
	if m := albumURLPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// statusError carries the HTTP status of a failed API call so callers
// can distinguish not-found from other failures.
type statusError struct {
	op     string
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.op, e.status, e.body)
}

func (c *Client) doJSON(ctx context.Context, op, method, endpoint string, in, out any) error {
	return c.caller.Do(ctx, op, func(ctx context.Context) error {
		var reqBody io.Reader
		if in != nil {
			data, err := json.Marshal(in)
			if err != nil {
				return retry.Permanent(fmt.Errorf("encode request: %w", err))
			}
			reqBody = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
		if err != nil {
			return retry.Permanent(err)
		}
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			return retry.Classify(err)
		}
		defer res.Body.Close()

		body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
		if err != nil {
			return retry.Retryable(err)
		}
		if res.StatusCode != http.StatusOK {
			return retry.ClassifyStatus(res.StatusCode, &statusError{
				op:     op,
				status: res.StatusCode,
				body:   strings.TrimSpace(string(body)),
			})
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return retry.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	})
}
