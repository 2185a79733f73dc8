package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"crm_sheet_sync/internal/fields"
	"crm_sheet_sync/internal/payload"

	"github.com/rs/zerolog/log"
)

// fieldCacheTTL bounds how stale field metadata may get before the next
// lookup refetches it.
const fieldCacheTTL = time.Hour

type cachedFields struct {
	defs      map[string]fields.Definition
	timestamp time.Time
}

// fieldsPath maps an entity kind to its field-metadata endpoint.
func fieldsPath(kind payload.Kind) (string, error) {
	switch kind {
	case payload.Deal:
		return "/dealFields", nil
	case payload.Person:
		return "/personFields", nil
	case payload.Organization:
		return "/organizationFields", nil
	case payload.Product:
		return "/productFields", nil
	case payload.Activity:
		return "/activityFields", nil
	case payload.Lead:
		// Leads reuse deal custom fields; the CRM has no leadFields endpoint.
		return "/dealFields", nil
	}
	return "", fmt.Errorf("unknown entity kind %q", kind)
}

// GetFields returns the field definitions for an entity kind, keyed by field
// key. Results are cached for an hour; force bypasses the cache. A failed
// fetch is not fatal to callers: they fall back to generic classification
// with an empty map.
func (c *Client) GetFields(ctx context.Context, kind payload.Kind, force bool) (map[string]fields.Definition, error) {
	path, err := fieldsPath(kind)
	if err != nil {
		return nil, err
	}

	if !force {
		if cached, ok := c.fieldCache.Load(path); ok {
			entry := cached.(cachedFields)
			if time.Since(entry.timestamp) < fieldCacheTTL {
				return entry.defs, nil
			}
		}
	}

	resp, err := c.authorizedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch field metadata: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("field metadata request failed with status %d: %s", resp.StatusCode, resp.Error)
	}

	// The data member of the envelope is a list here, not an object, so it
	// is re-decoded from the raw list the envelope parse preserved.
	defs, err := decodeDefinitions(resp)
	if err != nil {
		return nil, err
	}

	c.fieldCache.Store(path, cachedFields{defs: defs, timestamp: time.Now()})
	log.Debug().Str("kind", string(kind)).Int("fields", len(defs)).Msg("Refreshed field metadata")
	return defs, nil
}

func decodeDefinitions(resp *apiResponse) (map[string]fields.Definition, error) {
	var list []fields.Definition
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode field metadata: %w", err)
	}
	defs := make(map[string]fields.Definition, len(list))
	for _, def := range list {
		defs[def.Key] = def
	}
	return defs, nil
}
