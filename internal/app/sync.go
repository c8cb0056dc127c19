package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"driveflat/internal/config"
	"driveflat/internal/drive"
	"driveflat/internal/gauth"
	"driveflat/internal/photos"
	"driveflat/internal/retry"
	"driveflat/internal/sync"
)

// SyncCommand wraps the one-shot folder-to-album sync workflow.
type SyncCommand struct {
	configPath string
	albumName  string
	albumID    string
	verbose    bool
	skipErrors bool
	noBrowser  bool
	resetAuth  bool
	types      []string
	nameRegex  string
	minSizeKB  int64
	maxSizeMB  int64

	folderID string
	filters  sync.Filters
	cfg      *config.Config

	albumURL string
	imported int
}

// NewSyncCommand constructs an executable sync command.
func NewSyncCommand() *SyncCommand {
	return &SyncCommand{}
}

// Name returns the command identifier.
func (c *SyncCommand) Name() string { return "sync" }

func (c *SyncCommand) Desc() string {
	return "Sync media from a Drive folder tree into one flat Photos album"
}

// Init registers CLI flags that affect the command.
func (c *SyncCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "Path to config file")
	f.StringVar(&c.albumName, "album-name", "", "Target album name; created if it does not exist")
	f.StringVar(&c.albumID, "album-id", "", "Target album ID; must already exist")
	f.BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")
	f.BoolVar(&c.skipErrors, "skip-errors", false, "Record per-file failures and continue instead of aborting")
	f.BoolVar(&c.noBrowser, "no-browser", false, "Never open a browser")
	f.BoolVar(&c.resetAuth, "reset-auth", false, "Clear cached authentication tokens before running")
	f.StringSliceVar(&c.types, "types", nil, "Comma separated list of file extensions to include")
	f.StringVar(&c.nameRegex, "name-regex", "", "Only include files whose name matches this regex")
	f.Int64Var(&c.minSizeKB, "min-size-kb", 0, "Skip files below this size in KB")
	f.Int64Var(&c.maxSizeMB, "max-size-mb", 0, "Skip files above this size in MB")
}

// ParseArgs consumes the positional Drive folder ID or URL.
func (c *SyncCommand) ParseArgs(args []string) error {
	if len(args) != 1 {
		return errors.New("sync requires exactly one argument: the Drive folder ID")
	}
	c.folderID = drive.ParseFolderID(args[0])
	if c.folderID == "" {
		return fmt.Errorf("cannot extract a folder ID from %q", args[0])
	}
	return nil
}

// PreRun performs validation and configuration loading.
func (c *SyncCommand) PreRun(ctx context.Context) error {
	if c.verbose {
		logger.Init("", "debug", 0, 0, 0, true)
	}
	if (c.albumName == "") == (c.albumID == "") {
		return errors.New("exactly one of --album-name or --album-id is required")
	}

	filters, err := sync.NewFilters(c.types, c.nameRegex, c.minSizeKB, c.maxSizeMB)
	if err != nil {
		return err
	}
	c.filters = filters

	cfg, err := config.LoadFirst(c.configPath, "./driveflat.json", "~/.driveflat/config.json")
	if err != nil {
		return err
	}
	c.cfg = cfg

	logutil.GetLogger(ctx).Info("starting sync",
		zap.String("folder_id", c.folderID),
		zap.String("album_name", c.albumName),
		zap.String("album_id", c.albumID),
		zap.Bool("skip_errors", c.skipErrors),
	)
	return nil
}

// Run executes the sync workflow.
func (c *SyncCommand) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)
	logger.Info("run started", zap.String("run_id", uuid.NewString()))

	auth, err := gauth.New(c.cfg.Auth.ClientSecretFile, c.cfg.Auth.TokenDir, !c.noBrowser)
	if err != nil {
		return err
	}
	if c.resetAuth {
		if err := auth.Reset(); err != nil {
			return err
		}
		logger.Info("cleared cached tokens")
	}
	httpClient, err := auth.Client(ctx)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(float64(c.cfg.Quota.RequestsPerMinute)/60.0), c.cfg.Quota.Burst)
	caller := retry.NewCaller(limiter, c.cfg.Retry.MaxAttempts, time.Duration(c.cfg.Retry.BaseDelayMS)*time.Millisecond)

	driveClient, err := drive.New(ctx, httpClient, caller, c.cfg.Drive.PageSize)
	if err != nil {
		return err
	}
	photosClient := photos.New(httpClient, caller, c.cfg.Photos.PageSize)

	if err := driveClient.Probe(ctx, c.folderID); err != nil {
		return err
	}

	records, err := drive.NewWalker(driveClient).Walk(ctx, c.folderID)
	if err != nil {
		return err
	}

	included, filtered := c.filters.Partition(records)
	logger.Info("inventory filtered",
		zap.Int("total", len(records)),
		zap.Int("included", len(included)),
		zap.Int("filtered", len(filtered)),
	)

	state, err := sync.LoadAlbumState(ctx, photosClient, sync.Target{Name: c.albumName, ID: c.albumID})
	if err != nil {
		return err
	}
	c.albumURL = photos.AlbumURL(state.AlbumID)

	reporter := sync.NewReporter(os.Stdout)
	reporter.ReportAll(filtered)

	engine := &sync.Engine{
		Source:     driveClient,
		Target:     photosClient,
		State:      state,
		Reporter:   reporter,
		SkipErrors: c.skipErrors,
	}
	_, runErr := engine.Run(ctx, included)
	// partial results are flushed even when the run aborts
	reporter.Flush()
	if runErr != nil {
		return runErr
	}

	summary := reporter.Summary()
	c.imported = summary.Imported + summary.Renamed
	logger.Info("synchronization completed", zap.String("summary", summary.String()))
	return nil
}

// PostRun opens the album in the browser when anything was imported.
func (c *SyncCommand) PostRun(ctx context.Context) error {
	if c.noBrowser || c.imported == 0 || c.albumURL == "" {
		return nil
	}
	logutil.GetLogger(ctx).Info("opening album", zap.String("url", c.albumURL))
	if err := gauth.OpenBrowser(c.albumURL); err != nil {
		logutil.GetLogger(ctx).Warn("open browser failed", zap.Error(err))
	}
	return nil
}

func init() {
	RegisterCommand("sync", func() ICommand { return NewSyncCommand() })
}
