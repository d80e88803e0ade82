package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/snappy"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/logging"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

// LayoutCache persists presentation-only layout state to local disk, one
// snappy-compressed JSON file per project. Layout is explicitly not part
// of the backend entity contract, so the cache degrades gracefully: a
// missing or malformed file yields an empty state and the engine falls
// back to computed grid placement.
type LayoutCache struct {
	dir    string
	logger logging.Logger
}

// NewLayoutCache creates the cache directory if needed.
func NewLayoutCache(dir string, logger logging.Logger) (*LayoutCache, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating layout cache dir: %w", err)
	}
	return &LayoutCache{dir: dir, logger: logger.With(logging.Component("layout-cache"))}, nil
}

func (c *LayoutCache) path(projectID string) string {
	return filepath.Join(c.dir, projectID+".layout.snappy")
}

// Save writes the project's layout state, replacing any previous file.
// The write goes through a temp file and rename so readers never observe
// a torn file.
func (c *LayoutCache) Save(projectID string, state model.LayoutState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding layout state: %w", err)
	}
	compressed := snappy.Encode(nil, raw)

	target := c.path(projectID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return fmt.Errorf("writing layout cache: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("committing layout cache: %w", err)
	}
	c.logger.Debug("layout cache written",
		logging.ProjectID(projectID),
		logging.Int("raw_bytes", len(raw)),
		logging.Int("compressed_bytes", len(compressed)))
	return nil
}

// Load returns the project's cached layout state and whether one was
// usable. Missing or corrupt files are not errors.
func (c *LayoutCache) Load(projectID string) (model.LayoutState, bool) {
	compressed, err := os.ReadFile(c.path(projectID))
	if err != nil {
		return model.LayoutState{}, false
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		c.logger.Warn("layout cache corrupt; falling back to grid placement",
			logging.ProjectID(projectID), logging.Error(err))
		return model.LayoutState{}, false
	}
	var state model.LayoutState
	if err := json.Unmarshal(raw, &state); err != nil {
		c.logger.Warn("layout cache unreadable; falling back to grid placement",
			logging.ProjectID(projectID), logging.Error(err))
		return model.LayoutState{}, false
	}
	return state, true
}

// Forget removes the project's cache file, if any.
func (c *LayoutCache) Forget(projectID string) error {
	err := os.Remove(c.path(projectID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
