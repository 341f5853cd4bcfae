package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/blob"
)

// PhotoRefLister returns every photo key stored on rows of one table.
type PhotoRefLister interface {
	PhotoRefs(ctx context.Context) ([]string, error)
}

// CleanupOrphanPhotosTask deletes stored photos no apiary or hive refers
// to any more. Blobs younger than MinAgeMinutes are kept so an upload whose
// row update is still in flight survives.
type CleanupOrphanPhotosTask struct {
	MinAgeMinutes int `json:"min_age_minutes"`
}

// Config returns the queue configuration for photo cleanup tasks.
func (t CleanupOrphanPhotosTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_orphan_photos",
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

// CleanupOrphanPhotosProcessor creates a processor function for CleanupOrphanPhotosTask.
func CleanupOrphanPhotosProcessor(store blob.Store, apiaries, hives PhotoRefLister, log logrus.FieldLogger) backlite.QueueProcessor[CleanupOrphanPhotosTask] {
	return func(ctx context.Context, task CleanupOrphanPhotosTask) error {
		deleted, err := CleanupOrphanPhotos(ctx, store, apiaries, hives, time.Duration(task.MinAgeMinutes)*time.Minute)
		if err != nil {
			return err
		}
		log.WithField("deleted", deleted).Info("Cleaned up orphan photos")
		return nil
	}
}

// CleanupOrphanPhotos removes unreferenced blobs under the apiary and hive
// prefixes that are older than minAge and returns how many went.
func CleanupOrphanPhotos(ctx context.Context, store blob.Store, apiaries, hives PhotoRefLister, minAge time.Duration) (int, error) {
	if store == nil || apiaries == nil || hives == nil {
		return 0, fmt.Errorf("photo cleanup not configured")
	}

	referenced := make(map[string]struct{})
	for _, lister := range []PhotoRefLister{apiaries, hives} {
		refs, err := lister.PhotoRefs(ctx)
		if err != nil {
			return 0, fmt.Errorf("list photo refs: %w", err)
		}
		for _, ref := range refs {
			referenced[ref] = struct{}{}
		}
	}

	cutoff := time.Now().Add(-minAge)
	deleted := 0
	for _, prefix := range []string{blob.OwnerApiary + "/", blob.OwnerHive + "/"} {
		infos, err := store.List(ctx, prefix)
		if err != nil {
			return deleted, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, info := range infos {
			if _, ok := referenced[info.Key]; ok {
				continue
			}
			if minAge > 0 && info.LastModified.After(cutoff) {
				continue
			}
			ok, err := store.Delete(ctx, info.Key)
			if err != nil {
				return deleted, fmt.Errorf("delete %s: %w", info.Key, err)
			}
			if ok {
				deleted++
			}
		}
	}
	return deleted, nil
}

// NewCleanupOrphanPhotosQueue creates a backlite queue for photo cleanup tasks.
func NewCleanupOrphanPhotosQueue(store blob.Store, apiaries, hives PhotoRefLister, log logrus.FieldLogger) backlite.Queue {
	return backlite.NewQueue(CleanupOrphanPhotosProcessor(store, apiaries, hives, log))
}
