package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mrlokans/chapterdesk/internal/entities"
)

// ContentSource lists the HTML of every stored editor chapter.
type ContentSource interface {
	EditorContents() ([]string, error)
}

// ImageRecords gives access to uploaded image records.
type ImageRecords interface {
	ListCreatedBefore(cutoff time.Time) ([]entities.UploadedImage, error)
	DeleteImage(id uint) error
}

// ImageFiles removes stored image files.
type ImageFiles interface {
	RemoveImage(name string) error
}

// CleanupOrphanImagesTask removes uploaded images that no chapter
// references. Images younger than GracePeriod are kept: they may belong to
// a chapter that is still being written.
type CleanupOrphanImagesTask struct {
	GracePeriod time.Duration `json:"grace_period"`
}

// Config returns the queue configuration for image cleanup tasks.
func (t CleanupOrphanImagesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_orphan_images",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImageCleaner deletes orphan images.
type ImageCleaner struct {
	Content ContentSource
	Records ImageRecords
	Files   ImageFiles
	Logger  *zap.Logger

	now func() time.Time
}

// Run removes images created more than grace ago that are not referenced
// by any editor chapter. It returns the number of removed images; failures
// on individual images are collected and do not stop the run.
func (c *ImageCleaner) Run(ctx context.Context, grace time.Duration) (int, error) {
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := time.Now
	if c.now != nil {
		now = c.now
	}

	candidates, err := c.Records.ListCreatedBefore(now().Add(-grace))
	if err != nil {
		return 0, fmt.Errorf("list images: %w", err)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	contents, err := c.Content.EditorContents()
	if err != nil {
		return 0, fmt.Errorf("load chapter contents: %w", err)
	}
	refs := ReferencedImages(contents)

	var (
		removed int
		errs    error
	)
	for _, img := range candidates {
		if err := ctx.Err(); err != nil {
			return removed, multierr.Append(errs, err)
		}
		if _, ok := refs[img.FileName]; ok {
			continue
		}
		if err := c.Files.RemoveImage(img.FileName); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("remove %s: %w", img.FileName, err))
			continue
		}
		if err := c.Records.DeleteImage(img.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete record %d: %w", img.ID, err))
			continue
		}
		removed++
		log.Debug("Removed orphan image", zap.String("file", img.FileName))
	}
	return removed, errs
}

// CleanupOrphanImagesProcessor creates a processor function for CleanupOrphanImagesTask.
func CleanupOrphanImagesProcessor(cleaner *ImageCleaner) backlite.QueueProcessor[CleanupOrphanImagesTask] {
	return func(ctx context.Context, task CleanupOrphanImagesTask) error {
		if cleaner == nil {
			return fmt.Errorf("image cleaner not configured")
		}

		removed, err := cleaner.Run(ctx, task.GracePeriod)
		if cleaner.Logger != nil {
			cleaner.Logger.Info("Cleaned up orphan images", zap.Int("removed", removed))
		}
		if err != nil {
			return fmt.Errorf("cleanup orphan images: %w", err)
		}
		return nil
	}
}

// NewCleanupOrphanImagesQueue creates a backlite queue for image cleanup
// tasks, with retries and timeouts taken from cfg.
func NewCleanupOrphanImagesQueue(cleaner *ImageCleaner, cfg Config) backlite.Queue {
	return cfg.Apply(backlite.NewQueue(CleanupOrphanImagesProcessor(cleaner)))
}
