package bootstrap

import (
	"time"

	"docbridge/pkg/logging"
)

// LastUpdateKey is the single persisted state key, scoped per workspace.
const LastUpdateKey = "server.lastUpdate"

// farPastEpoch is the default lastUpdate when nothing is persisted, far
// enough back that the first check is always due.
var farPastEpoch = time.Unix(0, 0).UTC()

// StateStore is the injected key-value persistence dependency, keyed per
// workspace.
type StateStore interface {
	Get(workspace, key string) (string, bool, error)
	Set(workspace, key, value string) error
}

// UpdateState tracks when the backend in a workspace was last installed,
// updated, or checked against the registry. Both a successful install and a
// completed check count as an update for scheduling purposes.
type UpdateState struct {
	store     StateStore
	workspace string
}

// NewUpdateState binds the persisted state for one workspace.
func NewUpdateState(store StateStore, workspace string) *UpdateState {
	return &UpdateState{store: store, workspace: workspace}
}

// LastUpdate returns the persisted timestamp, or the far-past epoch when
// nothing was recorded yet or the recorded value is unreadable.
func (s *UpdateState) LastUpdate() time.Time {
	raw, ok, err := s.store.Get(s.workspace, LastUpdateKey)
	if err != nil {
		logging.Warn("UpdateState", "Failed to read %s: %v", LastUpdateKey, err)
		return farPastEpoch
	}
	if !ok {
		return farPastEpoch
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		logging.Warn("UpdateState", "Unparseable %s value %q: %v", LastUpdateKey, raw, err)
		return farPastEpoch
	}
	return t
}

// Refresh records now as the last update time.
func (s *UpdateState) Refresh(now time.Time) {
	if err := s.store.Set(s.workspace, LastUpdateKey, now.UTC().Format(time.RFC3339)); err != nil {
		logging.Warn("UpdateState", "Failed to persist %s: %v", LastUpdateKey, err)
	}
}
