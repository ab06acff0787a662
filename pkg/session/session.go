// Package session keeps per-viewer expansion state between requests.
//
// A [Session] binds a dataset to the set of expanded category paths plus
// the expand-all toggle. Stores persist sessions with expiry:
//
//   - [MemoryStore]: in-process, for tests and single-instance servers
//   - [FileStore]: JSON files, for the CLI explorer
//   - [RedisStore]: shared across server instances
//   - [MongoStore]: durable, for long-lived saved views
//
// Every store returns (nil, nil) from Get for a missing or expired
// session; [Load] turns that into a SESSION_NOT_FOUND error.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/radialtree/pkg/errors"
	"github.com/matzehuels/radialtree/pkg/tree"
)

// DefaultTTL is the default session lifetime, renewed on every update.
const DefaultTTL = 7 * 24 * time.Hour

// Session is the expansion state of one viewer on one dataset.
type Session struct {
	ID        string               `json:"id"`
	Dataset   string               `json:"dataset"`
	State     tree.ExpandAllToggle `json:"state"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// New creates a session on dataset starting from initial.
func New(dataset string, initial tree.Expansion, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Dataset:   dataset,
		State:     tree.ExpandAllToggle{Current: initial.Clone(), Previous: tree.NewExpansion()},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expanded returns the current expansion.
func (s *Session) Expanded() tree.Expansion { return s.State.Current }

// Toggle flips one path and reports whether it is now expanded.
func (s *Session) Toggle(path string) bool {
	return s.State.Current.Toggle(path)
}

// ExpandAll switches between "everything expanded" and the state before.
func (s *Session) ExpandAll(root *tree.Node) tree.Expansion {
	return s.State.Toggle(root)
}

// IsExpired reports whether the session has outlived its TTL.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch renews the session.
func (s *Session) Touch(ttl time.Duration) {
	s.UpdatedAt = time.Now().UTC()
	s.ExpiresAt = s.UpdatedAt.Add(ttl)
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.State = tree.ExpandAllToggle{
		Current:     s.State.Current.Clone(),
		Previous:    s.State.Previous.Clone(),
		AllExpanded: s.State.AllExpanded,
	}
	return &c
}

// Store is the interface for session storage backends.
type Store interface {
	// Get returns the session, or nil, nil if it is missing or expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session until its ExpiresAt.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions. A no-op for backends with native
	// expiry.
	Cleanup(ctx context.Context) error

	Close() error
}

// Load fetches id from store and fails with SESSION_NOT_FOUND when it is
// missing or expired.
func Load(ctx context.Context, store Store, id string) (*Session, error) {
	s, err := store.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load session")
	}
	if s == nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	return s, nil
}
