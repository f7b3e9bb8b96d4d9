// Package cleanup implements pruning of old archived sessions and their
// exported reports.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/berth-dev/cutover/internal/archive"
)

// Archive is the part of the session archive pruning needs.
type Archive interface {
	List(ctx context.Context, limit int) ([]archive.Summary, error)
	Delete(ctx context.Context, id string) error
}

// PruneByAge removes sessions that ended more than maxAgeDays before now,
// together with {reportsDir}/{id}.md when present. If dryRun is true,
// nothing is deleted; the function only returns the ids that would be
// removed.
func PruneByAge(ctx context.Context, a Archive, reportsDir string, maxAgeDays int, now time.Time, dryRun bool) ([]string, error) {
	sessions, err := a.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	cutoff := now.AddDate(0, 0, -maxAgeDays)
	var victims []string
	for _, s := range sessions {
		if s.EndedAt.Before(cutoff) {
			victims = append(victims, s.ID)
		}
	}
	return remove(ctx, a, reportsDir, victims, dryRun)
}

// PruneKeepRecent removes every session except the keep most recently
// ended ones. If dryRun is true, nothing is deleted.
func PruneKeepRecent(ctx context.Context, a Archive, reportsDir string, keep int, dryRun bool) ([]string, error) {
	sessions, err := a.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) <= keep {
		return nil, nil
	}

	// List is newest first.
	var victims []string
	for _, s := range sessions[keep:] {
		victims = append(victims, s.ID)
	}
	return remove(ctx, a, reportsDir, victims, dryRun)
}

func remove(ctx context.Context, a Archive, reportsDir string, ids []string, dryRun bool) ([]string, error) {
	var pruned []string
	for _, id := range ids {
		if !dryRun {
			if err := a.Delete(ctx, id); err != nil && !errors.Is(err, archive.ErrNotFound) {
				return pruned, fmt.Errorf("removing %s: %w", id, err)
			}
			if reportsDir != "" {
				path := filepath.Join(reportsDir, id+".md")
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					return pruned, fmt.Errorf("removing report %s: %w", id, err)
				}
			}
		}
		pruned = append(pruned, id)
	}
	return pruned, nil
}
