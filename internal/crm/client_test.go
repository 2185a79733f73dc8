package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"crm_sheet_sync/internal/payload"

	"golang.org/x/oauth2"
)

const testHash = "4ef9ab74d1a6e23b9c1f2a50d9e8c3b7f6a1d2e4"

// rotatingTokenSource hands out a fresh token each time it is asked,
// standing in for an OAuth refresh.
type rotatingTokenSource struct {
	tokens []string
	next   int
}

func (r *rotatingTokenSource) Token() (*oauth2.Token, error) {
	token := r.tokens[r.next]
	if r.next < len(r.tokens)-1 {
		r.next++
	}
	return &oauth2.Token{AccessToken: token}, nil
}

func staticClient(url string) *Client {
	return NewClient(url, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}))
}

func writeEnvelope(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func TestAuthorizedRequestRefreshesOnceOn401(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		seen = append(seen, auth)
		if auth != "Bearer good" {
			writeEnvelope(w, http.StatusUnauthorized, `{"success":false,"error":"unauthorized"}`)
			return
		}
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":{}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, &rotatingTokenSource{tokens: []string{"stale", "good"}})

	resp, err := client.authorizedRequest(context.Background(), http.MethodGet, "/dealFields", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 after refresh, got %d", resp.StatusCode)
	}
	if len(seen) != 2 {
		t.Errorf("Expected exactly 2 requests (original + one retry), got %d", len(seen))
	}
}

func TestAuthorizedRequestGivesUpAfterSecond401(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeEnvelope(w, http.StatusUnauthorized, `{"success":false,"error":"unauthorized"}`)
	}))
	defer server.Close()

	client := staticClient(server.URL)

	_, err := client.authorizedRequest(context.Background(), http.MethodGet, "/dealFields", nil)
	if err == nil {
		t.Fatal("Expected auth error")
	}
	if !strings.Contains(err.Error(), "authorization failed") {
		t.Errorf("Expected ErrAuth, got %v", err)
	}
	if requests != 2 {
		t.Errorf("Expected exactly 2 requests, never more, got %d", requests)
	}
}

func TestGetFieldsCaches(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		writeEnvelope(w, http.StatusOK,
			`{"success":true,"data":[{"key":"title","name":"Title","field_type":"varchar"}]}`)
	}))
	defer server.Close()

	client := staticClient(server.URL)
	ctx := context.Background()

	defs, err := client.GetFields(ctx, payload.Deal, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if defs["title"].Name != "Title" {
		t.Errorf("Unexpected definitions %v", defs)
	}

	if _, err := client.GetFields(ctx, payload.Deal, false); err != nil {
		t.Fatalf("Unexpected error on cached fetch: %v", err)
	}
	if fetches != 1 {
		t.Errorf("Expected second lookup served from cache, got %d fetches", fetches)
	}

	if _, err := client.GetFields(ctx, payload.Deal, true); err != nil {
		t.Fatalf("Unexpected error on forced fetch: %v", err)
	}
	if fetches != 2 {
		t.Errorf("Expected force to bypass cache, got %d fetches", fetches)
	}
}

func TestUpdateDealShapesPayload(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dealFields" {
			writeEnvelope(w, http.StatusOK,
				`{"success":true,"data":[{"key":"`+testHash+`","name":"Meeting time","field_type":"timerange"}]}`)
			return
		}
		if r.URL.Path != "/deals/7" || r.Method != http.MethodPut {
			t.Errorf("Unexpected call %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode update body: %v", err)
		}
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":{"id":7}}`)
	}))
	defer server.Close()

	client := staticClient(server.URL)
	row := map[string]any{"Start Time": "09:00 AM"}
	mapping := map[string]string{"Start Time": testHash}

	result := client.UpdateDeal(context.Background(), 7, row, mapping)
	if !result.Success {
		t.Fatalf("Expected success, got error %q", result.Err)
	}
	if result.Data["id"] != 7.0 {
		t.Errorf("Expected parsed response data, got %v", result.Data)
	}

	if body[testHash] != "09:00:00" || body[testHash+"_until"] != "09:00:00" {
		t.Errorf("Expected resolved pair at root, got %v", body)
	}
	nested, ok := body["custom_fields"].(map[string]any)
	if !ok || nested[testHash] != "09:00:00" || nested[testHash+"_until"] != "09:00:00" {
		t.Errorf("Expected resolved pair nested, got %v", body)
	}
}

func TestUpdatePersonFlattens(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/personFields" {
			writeEnvelope(w, http.StatusOK, `{"success":true,"data":[]}`)
			return
		}
		json.NewDecoder(r.Body).Decode(&body)
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":{"id":3}}`)
	}))
	defer server.Close()

	client := staticClient(server.URL)
	row := map[string]any{"Nickname": "Ada"}
	mapping := map[string]string{"Nickname": testHash}

	result := client.UpdatePerson(context.Background(), 3, row, mapping)
	if !result.Success {
		t.Fatalf("Expected success, got %q", result.Err)
	}
	if _, ok := body["custom_fields"]; ok {
		t.Errorf("Person payload must not contain custom_fields, got %v", body)
	}
	if body[testHash] != "Ada" {
		t.Errorf("Expected custom field flattened to root, got %v", body)
	}
}

func TestUpdateReturnsFailureOnRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "Fields") {
			writeEnvelope(w, http.StatusOK, `{"success":true,"data":[]}`)
			return
		}
		writeEnvelope(w, http.StatusBadRequest,
			`{"success":false,"error":"Deal not found","error_info":"check the id"}`)
	}))
	defer server.Close()

	client := staticClient(server.URL)
	result := client.UpdateDeal(context.Background(), 999,
		map[string]any{"Title": "x"}, map[string]string{"Title": "title"})

	if result.Success {
		t.Fatal("Expected failure result")
	}
	if result.Err != "Deal not found" || result.ErrorInfo != "check the id" {
		t.Errorf("Expected API error surfaced, got %q / %q", result.Err, result.ErrorInfo)
	}
}

func TestUpdateEmptyRowFailsWithoutCall(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "Fields") {
			writeEnvelope(w, http.StatusOK, `{"success":true,"data":[]}`)
			return
		}
		calls++
	}))
	defer server.Close()

	client := staticClient(server.URL)
	result := client.UpdateDeal(context.Background(), 1, map[string]any{}, map[string]string{})

	if result.Success {
		t.Fatal("Expected failure for empty row")
	}
	if calls != 0 {
		t.Errorf("Expected no update call for an empty payload, got %d", calls)
	}
}
