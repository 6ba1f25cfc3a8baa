package neo

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Directory maps a controller's short id to the full identity string the
// command endpoint requires. The identity strings are carried in the access
// token's "ctrv2" claim as comma-delimited values whose first segment is the
// short id; the remainder is opaque and must be sent back verbatim.
type Directory struct {
	mu         sync.RWMutex
	identities map[string]string
}

// NewDirectory creates an empty directory. Resolve returns nothing until
// the first Rebuild.
func NewDirectory() *Directory {
	return &Directory{identities: make(map[string]string)}
}

// Rebuild re-derives the directory from the given access token, replacing
// the previous mapping entirely. It fails softly: if the claim is absent or
// empty the directory becomes empty and every Resolve reports a miss, which
// callers must treat as "command cannot be addressed".
func (d *Directory) Rebuild(accessToken string, logger zerolog.Logger) {
	identities := make(map[string]string)

	strs, err := ClaimStrings(accessToken, "ctrv2")
	if err != nil {
		logger.Error().Err(err).Msg("No controller identities in access token")
	}
	for _, full := range strs {
		shortID, _, _ := strings.Cut(full, ",")
		if shortID == "" {
			continue
		}
		// Last token wins when the claim repeats a short id.
		identities[shortID] = full
	}

	d.mu.Lock()
	d.identities = identities
	d.mu.Unlock()

	logger.Debug().Int("controllers", len(identities)).Msg("Controller directory rebuilt")
}

// Resolve returns the full identity string for a controller short id.
func (d *Directory) Resolve(controllerID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	full, ok := d.identities[controllerID]
	return full, ok
}

// Len returns the number of known controllers.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.identities)
}
