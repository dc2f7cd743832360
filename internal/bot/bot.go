// Package bot wires the fetch, reshape, plot, compose, guard, and publish
// steps into the runnable pipelines behind each bot account.
package bot

import (
	"context"
	"time"

	"github.com/dmvwx/dmvbots/internal/runlog"
)

// Poster publishes a status, optionally with media. Satisfied by
// *twitter.Client.
type Poster interface {
	UploadMedia(ctx context.Context, path string) (int64, error)
	UpdateStatus(ctx context.Context, status string, mediaIDs []int64) error
}

// Log is the duplicate-post guard and audit trail. Satisfied by
// *runlog.DB.
type Log interface {
	ShouldPost(location, series string, newest time.Time, newestValue float64) (bool, error)
	Append(rec runlog.Record) error
}
