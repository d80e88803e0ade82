package engine

import "github.com/google/uuid"

// newID mints an opaque entity id. Ids are generated client-side so undo
// and redo can re-create an entity under its original identity.
func newID() string {
	return uuid.New().String()
}
