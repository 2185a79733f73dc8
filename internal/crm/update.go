package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"crm_sheet_sync/internal/fields"
	"crm_sheet_sync/internal/payload"

	"github.com/rs/zerolog/log"
)

// Result is the per-row outcome of an update. No error escapes past the
// adapter: everything the pipeline or the wire throws ends up in here.
type Result struct {
	Success   bool
	Data      map[string]any
	Err       string
	ErrorInfo string
	Warnings  []payload.Warning
}

func failure(err error) Result {
	return Result{Success: false, Err: err.Error()}
}

// UpdateDeal pushes one edited row to the deal update endpoint.
func (c *Client) UpdateDeal(ctx context.Context, id int, row map[string]any, headerToKey map[string]string) Result {
	return c.update(ctx, payload.Deal, fmt.Sprintf("/deals/%d", id), http.MethodPut, row, headerToKey)
}

// UpdatePerson pushes one edited row to the person update endpoint.
func (c *Client) UpdatePerson(ctx context.Context, id int, row map[string]any, headerToKey map[string]string) Result {
	return c.update(ctx, payload.Person, fmt.Sprintf("/persons/%d", id), http.MethodPut, row, headerToKey)
}

// UpdateOrganization pushes one edited row to the organization update endpoint.
func (c *Client) UpdateOrganization(ctx context.Context, id int, row map[string]any, headerToKey map[string]string) Result {
	return c.update(ctx, payload.Organization, fmt.Sprintf("/organizations/%d", id), http.MethodPut, row, headerToKey)
}

// UpdateProduct pushes one edited row to the product update endpoint.
func (c *Client) UpdateProduct(ctx context.Context, id int, row map[string]any, headerToKey map[string]string) Result {
	return c.update(ctx, payload.Product, fmt.Sprintf("/products/%d", id), http.MethodPut, row, headerToKey)
}

// UpdateActivity pushes one edited row to the activity update endpoint.
func (c *Client) UpdateActivity(ctx context.Context, id int, row map[string]any, headerToKey map[string]string) Result {
	return c.update(ctx, payload.Activity, fmt.Sprintf("/activities/%d", id), http.MethodPut, row, headerToKey)
}

// UpdateLead pushes one edited row to the lead update endpoint. Lead ids
// are opaque strings and the endpoint takes PATCH, not PUT.
func (c *Client) UpdateLead(ctx context.Context, id string, row map[string]any, headerToKey map[string]string) Result {
	return c.update(ctx, payload.Lead, "/leads/"+id, http.MethodPatch, row, headerToKey)
}

// update runs the whole return path for one row: classify and format every
// mapped cell, resolve range pairs, settle the entity shape, and issue the
// single outbound call. One row, one call, one Result.
func (c *Client) update(ctx context.Context, kind payload.Kind, path, method string, row map[string]any, headerToKey map[string]string) Result {
	defs, err := c.GetFields(ctx, kind, false)
	if err != nil {
		// Stale or missing metadata degrades to generic classification.
		log.Warn().Err(err).Str("kind", string(kind)).Msg("Proceeding without field metadata")
		defs = map[string]fields.Definition{}
	}

	env := payload.Build(kind, row, headerToKey, defs)
	env = payload.ResolvePairs(env, row, headerToKey, defs)
	env = payload.Assemble(kind, env)
	body := payload.Finalize(env)

	if len(body) == 0 {
		result := failure(errors.New("no updatable values in row"))
		result.Warnings = env.Warnings
		return result
	}

	resp, err := c.authorizedRequest(ctx, method, path, body)
	if err != nil {
		result := failure(err)
		result.Warnings = env.Warnings
		return result
	}

	result := Result{Warnings: env.Warnings}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !resp.Success {
		result.Err = resp.Error
		if result.Err == "" {
			result.Err = fmt.Sprintf("update failed with status %d", resp.StatusCode)
		}
		result.ErrorInfo = resp.ErrorInfo
		log.Error().
			Str("kind", string(kind)).
			Str("path", path).
			Int("status_code", resp.StatusCode).
			Str("error", result.Err).
			Msg("Update rejected")
		return result
	}

	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &result.Data); err != nil {
			log.Debug().Err(err).Msg("Update response data is not an object")
		}
	}
	result.Success = true
	return result
}
