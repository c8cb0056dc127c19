package sync

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"driveflat/internal/model"
)

// SourceClient fetches file bytes from the source service.
type SourceClient interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// TargetClient transfers bytes into the destination album.
type TargetClient interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
	AddToAlbum(ctx context.Context, albumID, mediaItemID string) error
}

// Engine runs the per-file decide-then-transfer-then-classify protocol
// over the included inventory, strictly in walk order.
type Engine struct {
	Source     SourceClient
	Target     TargetClient
	State      *AlbumState
	Reporter   *Reporter
	SkipErrors bool
}

// Run processes every record and returns one outcome per record, in
// input order. When a transfer fails and SkipErrors is off, the
// outcomes accumulated so far are returned alongside the error so the
// caller can still report them; nothing already decided is discarded.
func (e *Engine) Run(ctx context.Context, included []model.FileRecord) ([]model.Outcome, error) {
	logger := logutil.GetLogger(ctx)

	outcomes := make([]model.Outcome, 0, len(included))
	for i, rec := range included {
		logger.Info("processing file",
			zap.Int("index", i+1),
			zap.Int("total", len(included)),
			zap.String("name", rec.Name),
			zap.String("path", rec.Path),
		)

		outcome, err := e.processOne(ctx, rec)
		if err != nil {
			if !e.SkipErrors {
				return outcomes, fmt.Errorf("sync %s: %w", rec.Name, err)
			}
			logger.Warn("skipping file after failure",
				zap.String("name", rec.Name),
				zap.Error(err),
			)
			outcome = model.Outcome{
				Record:   rec,
				DestName: rec.Name,
				Status:   model.StatusErrorSkipped,
				Message:  err.Error(),
			}
		}
		outcomes = append(outcomes, outcome)
		e.Reporter.Report(outcome)
	}
	return outcomes, nil
}

func (e *Engine) processOne(ctx context.Context, rec model.FileRecord) (model.Outcome, error) {
	logger := logutil.GetLogger(ctx)

	// Reserve the destination name pessimistically; a duplicate upload
	// revokes it below. A name collision alone never skips a file:
	// same name with different bytes must still be imported.
	destName := e.State.ProposeName(rec.Name)
	if destName != rec.Name {
		logger.Info("name collision, renaming",
			zap.String("name", rec.Name),
			zap.String("dest_name", destName),
		)
	}

	data, err := e.Source.Download(ctx, rec.ID)
	if err != nil {
		e.State.ReleaseName(destName)
		return model.Outcome{}, err
	}

	mediaID, err := e.Target.Upload(ctx, destName, data)
	if err != nil {
		e.State.ReleaseName(destName)
		return model.Outcome{}, err
	}

	// The service returns the existing item's identity for identical
	// bytes, so the duplicate decision happens only now. It takes
	// precedence over any naming decision made above.
	if e.State.KnownContent(mediaID) {
		e.State.ReleaseName(destName)
		logger.Warn("duplicate content, skipping",
			zap.String("name", rec.Name),
			zap.String("path", rec.Path),
			zap.String("duplicate_of", mediaID),
		)
		return model.Outcome{
			Record:      rec,
			DestName:    destName,
			Status:      model.StatusDuplicateContent,
			MediaItemID: mediaID,
			Message:     fmt.Sprintf("identical bytes already in album as item %s", mediaID),
		}, nil
	}

	if err := e.Target.AddToAlbum(ctx, e.State.AlbumID, mediaID); err != nil {
		e.State.ReleaseName(destName)
		return model.Outcome{}, err
	}
	e.State.AddContent(mediaID)

	outcome := model.Outcome{
		Record:      rec,
		DestName:    destName,
		Status:      model.StatusImported,
		MediaItemID: mediaID,
	}
	if destName != rec.Name {
		outcome.Status = model.StatusRenamedImported
		outcome.Message = fmt.Sprintf("renamed to %s", destName)
	}
	return outcome, nil
}
