package drive

import (
	"context"
	"fmt"
	"path"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"driveflat/internal/model"
)

// Walker flattens a folder tree into a single ordered file sequence.
// Traversal is depth-first: subfolders are descended the moment they
// are discovered, in listing order, and folders themselves are never
// emitted. The emitted order is the canonical processing order for the
// rest of the pipeline.
type Walker struct {
	lister ChildLister
}

// NewWalker builds a walker over any child lister.
func NewWalker(lister ChildLister) *Walker {
	return &Walker{lister: lister}
}

// Walk lists the folder tree rooted at folderID and returns every file
// in it, attributed only by its own metadata.
func (w *Walker) Walk(ctx context.Context, folderID string) ([]model.FileRecord, error) {
	records, err := w.walk(ctx, folderID, "")
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("source inventory listed",
		zap.String("root", folderID),
		zap.Int("files", len(records)),
	)
	return records, nil
}

func (w *Walker) walk(ctx context.Context, folderID, prefix string) ([]model.FileRecord, error) {
	var out []model.FileRecord
	pageToken := ""
	for {
		entries, next, err := w.lister.ListChildren(ctx, folderID, pageToken)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsFolder {
				sub, err := w.walk(ctx, e.ID, path.Join(prefix, e.Name))
				if err != nil {
					return nil, fmt.Errorf("walk folder %s: %w", e.Name, err)
				}
				out = append(out, sub...)
				continue
			}
			out = append(out, model.FileRecord{
				ID:       e.ID,
				Name:     e.Name,
				Path:     path.Join(prefix, e.Name),
				Size:     e.Size,
				MimeType: e.MimeType,
				MD5:      e.MD5,
			})
		}
		if next == "" {
			return out, nil
		}
		pageToken = next
	}
}
