package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"driveflat/internal/retry"
)

const folderMimeType = "application/vnd.google-apps.folder"

// ErrSourceUnavailable is returned when the root folder does not
// resolve to a folder readable by the caller.
var ErrSourceUnavailable = errors.New("source folder unavailable")

// Entry is one child of a folder as returned by the source listing.
type Entry struct {
	ID       string
	Name     string
	Size     int64
	MimeType string
	MD5      string
	IsFolder bool
}

// ChildLister pages through the direct children of a folder.
type ChildLister interface {
	ListChildren(ctx context.Context, folderID, pageToken string) ([]Entry, string, error)
}

// Client talks to the Drive API through the shared retry caller.
type Client struct {
	svc      *drive.Service
	caller   *retry.Caller
	pageSize int64
}

// New builds a Drive client on top of an authorized http client.
func New(ctx context.Context, httpClient *http.Client, caller *retry.Caller, pageSize int64) (*Client, error) {
	svc, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("init drive service: %w", err)
	}
	return &Client{svc: svc, caller: caller, pageSize: pageSize}, nil
}

// Probe verifies that folderID resolves to a readable folder. Any
// failure is reported as ErrSourceUnavailable with the cause attached.
func (c *Client) Probe(ctx context.Context, folderID string) error {
	var meta *drive.File
	err := c.caller.Do(ctx, "drive.files.get", func(ctx context.Context) error {
		f, err := c.svc.Files.Get(folderID).Fields("id, name, mimeType").Context(ctx).Do()
		if err != nil {
			return classify(err)
		}
		meta = f
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, folderID, err)
	}
	if meta.MimeType != folderMimeType {
		return fmt.Errorf("%w: %s is not a folder", ErrSourceUnavailable, folderID)
	}
	return nil
}

// ListChildren returns one page of the direct children of folderID.
func (c *Client) ListChildren(ctx context.Context, folderID, pageToken string) ([]Entry, string, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false", folderID)

	var res *drive.FileList
	err := c.caller.Do(ctx, "drive.files.list", func(ctx context.Context) error {
		call := c.svc.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType, size, md5Checksum)").
			PageSize(c.pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		r, err := call.Do()
		if err != nil {
			return classify(err)
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("list children of %s: %w", folderID, err)
	}

	entries := make([]Entry, 0, len(res.Files))
	for _, f := range res.Files {
		entries = append(entries, Entry{
			ID:       f.Id,
			Name:     f.Name,
			Size:     f.Size,
			MimeType: f.MimeType,
			MD5:      f.Md5Checksum,
			IsFolder: f.MimeType == folderMimeType,
		})
	}
	return entries, res.NextPageToken, nil
}

// Download fetches the raw bytes of a file.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	var data []byte
	err := c.caller.Do(ctx, "drive.files.download", func(ctx context.Context) error {
		res, err := c.svc.Files.Get(fileID).Context(ctx).Download()
		if err != nil {
			return classify(err)
		}
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return retry.Retryable(err)
		}
		data = body
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileID, err)
	}
	return data, nil
}

// classify maps Drive API failures onto the retry taxonomy.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return retry.ClassifyStatus(gerr.Code, err)
	}
	return retry.Classify(err)
}
