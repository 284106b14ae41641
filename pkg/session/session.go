// Package session tracks per-session state: the remaining message quota and
// the metadata of every ingested source. All state expires together after a
// fixed idle window; any write refreshes the window.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrQuotaExhausted is returned by ConsumeQuota when the counter is already
// at zero. The counter never goes negative, even under concurrent consumers.
var ErrQuotaExhausted = errors.New("session quota exhausted")

const (
	KindFile = "file"
	KindURL  = "url"
	KindText = "text"
)

// SourceMetadata describes one ingested source. Name is the identity used
// for targeting and deletion; ingesting the same name twice produces two
// entries on purpose.
type SourceMetadata struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	ContentType string    `json:"contentType"`
	Size        string    `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// NewSourceID returns a monotonic-enough source id. UnixNano keeps listing
// order stable without coordinating with the store.
func NewSourceID(now time.Time) string {
	return fmt.Sprintf("%d", now.UnixNano())
}

// HumanSize formats a byte count the way the upload listing displays it.
func HumanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

type Store interface {
	// ConsumeQuota atomically decrements the session's quota and returns the
	// remaining count. A missing counter is initialized to the default first.
	// Returns ErrQuotaExhausted without decrementing when nothing is left.
	ConsumeQuota(ctx context.Context, sessionID string) (int, error)

	// GetQuota reads the remaining quota without consuming. A session that
	// has never consumed reports the full default.
	GetQuota(ctx context.Context, sessionID string) (int, error)

	// ResetQuota restores the counter to the default and returns it.
	ResetQuota(ctx context.Context, sessionID string) (int, error)

	AppendSource(ctx context.Context, sessionID string, src SourceMetadata) error

	// ListSources returns all sources ordered by ingestion time.
	ListSources(ctx context.Context, sessionID string) ([]SourceMetadata, error)

	// RemoveSource drops every entry with the given name and reports whether
	// anything was removed.
	RemoveSource(ctx context.Context, sessionID string, name string) (bool, error)

	// Clear wipes the session's quota and source records.
	Clear(ctx context.Context, sessionID string) error
}
