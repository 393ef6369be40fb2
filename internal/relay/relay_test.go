package relay

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/niqdata/oura-relay/internal/oura"
	"github.com/niqdata/oura-relay/internal/store"
)

// fakeFetcher serves canned payloads or errors per category
type fakeFetcher struct {
	mu       sync.Mutex
	payloads map[oura.Category]any
	errs     map[oura.Category]error
	calls    []oura.Category
}

func (f *fakeFetcher) Fetch(ctx context.Context, category oura.Category, accessToken string, dateRange *oura.DateRange) (any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, category)
	f.mu.Unlock()

	if err, ok := f.errs[category]; ok {
		return nil, err
	}
	if payload, ok := f.payloads[category]; ok {
		return payload, nil
	}
	return map[string]any{"category": category.String()}, nil
}

func seededStore(t *testing.T, email string) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	if err := s.Upsert(context.Background(), email, "access-token", "refresh-token"); err != nil {
		t.Fatalf("seed upsert failed: %v", err)
	}
	return s
}

func TestFetchForUser_UnknownUser(t *testing.T) {
	r := New(store.NewMemoryStore(), &fakeFetcher{})

	payload, status := r.FetchForUser(context.Background(), "nonexistent@example.com", "daily_data")

	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
	obj := payload.(map[string]any)
	if obj["error"] != "User not found" {
		t.Errorf("unexpected payload: %v", obj)
	}
}

func TestFetchForUser_UnknownCategory(t *testing.T) {
	r := New(seededStore(t, "known@example.com"), &fakeFetcher{})

	payload, status := r.FetchForUser(context.Background(), "known@example.com", "bogus_type")

	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	obj := payload.(map[string]any)
	if obj["error"] != "Unknown data_type 'bogus_type'" {
		t.Errorf("unexpected payload: %v", obj)
	}
}

func TestFetchForUser_UpstreamError(t *testing.T) {
	fetcher := &fakeFetcher{errs: map[oura.Category]error{
		oura.CategoryWorkout: oura.UpstreamError{Status: 500, Body: "upstream exploded"},
	}}
	r := New(seededStore(t, "known@example.com"), fetcher)

	payload, status := r.FetchForUser(context.Background(), "known@example.com", "workout_data")

	if status != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", status)
	}
	obj := payload.(map[string]any)
	if obj["error"] != "Oura error 500" {
		t.Errorf("unexpected error label: %v", obj["error"])
	}
	if obj["body"] != "upstream exploded" {
		t.Errorf("unexpected body: %v", obj["body"])
	}
}

func TestFetchForUser_TransportError(t *testing.T) {
	fetcher := &fakeFetcher{errs: map[oura.Category]error{
		oura.CategoryDaily: oura.TransportError{Err: errors.New("connection refused")},
	}}
	r := New(seededStore(t, "known@example.com"), fetcher)

	payload, status := r.FetchForUser(context.Background(), "known@example.com", "daily_data")

	if status != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", status)
	}
	obj := payload.(map[string]any)
	if obj["error"] != "Network error" {
		t.Errorf("unexpected error label: %v", obj["error"])
	}
	if obj["detail"] != "connection refused" {
		t.Errorf("unexpected detail: %v", obj["detail"])
	}
}

func TestFetchForUser_DecodeError(t *testing.T) {
	fetcher := &fakeFetcher{errs: map[oura.Category]error{
		oura.CategoryEmail: oura.DecodeError{Err: errors.New("unexpected EOF")},
	}}
	r := New(seededStore(t, "known@example.com"), fetcher)

	payload, status := r.FetchForUser(context.Background(), "known@example.com", "email")

	if status != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", status)
	}
	obj := payload.(map[string]any)
	if obj["error"] != "Invalid JSON from Oura" {
		t.Errorf("unexpected error label: %v", obj["error"])
	}
}

func TestFetchForUser_Success(t *testing.T) {
	fetcher := &fakeFetcher{payloads: map[oura.Category]any{
		oura.CategoryDaily: []any{map[string]any{"day": "2025-03-15"}},
	}}
	r := New(seededStore(t, "known@example.com"), fetcher)

	payload, status := r.FetchForUser(context.Background(), "known@example.com", "daily_data")

	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	records := payload.([]any)
	if len(records) != 1 {
		t.Errorf("unexpected payload: %v", payload)
	}
}

func TestFetchAllForUser_PartialFailureIsolated(t *testing.T) {
	fetcher := &fakeFetcher{
		payloads: map[oura.Category]any{
			oura.CategoryDaily: []any{map[string]any{"day": "2025-03-15"}},
		},
		errs: map[oura.Category]error{
			oura.CategoryWorkout: oura.UpstreamError{Status: 500, Body: "boom"},
		},
	}
	r := New(seededStore(t, "known@example.com"), fetcher)

	results := r.FetchAllForUser(context.Background(), "known@example.com")

	if len(results) != len(oura.AllCategories()) {
		t.Fatalf("expected %d entries, got %d", len(oura.AllCategories()), len(results))
	}

	// The successful category appears unwrapped
	if _, wrapped := results["daily_data"].(map[string]any); wrapped {
		t.Errorf("successful payload should not be wrapped: %v", results["daily_data"])
	}

	// The failed category is wrapped under _error and suppresses nothing
	wrapped, ok := results["workout_data"].(map[string]any)
	if !ok {
		t.Fatalf("expected wrapped failure, got %T", results["workout_data"])
	}
	inner, ok := wrapped["_error"].(map[string]any)
	if !ok {
		t.Fatalf("expected _error entry, got %v", wrapped)
	}
	if inner["error"] != "Oura error 500" {
		t.Errorf("unexpected inner error: %v", inner)
	}
}

func TestFetchAllForUser_AttemptsEveryCategory(t *testing.T) {
	fetcher := &fakeFetcher{errs: map[oura.Category]error{
		oura.CategoryEmail:        oura.TransportError{Err: errors.New("down")},
		oura.CategoryPersonalInfo: oura.TransportError{Err: errors.New("down")},
		oura.CategoryDaily:        oura.TransportError{Err: errors.New("down")},
	}}
	r := New(seededStore(t, "known@example.com"), fetcher)

	results := r.FetchAllForUser(context.Background(), "known@example.com")

	if len(results) != len(oura.AllCategories()) {
		t.Errorf("expected all categories present, got %d", len(results))
	}
	if len(fetcher.calls) != len(oura.AllCategories()) {
		t.Errorf("expected every category attempted, got %d calls", len(fetcher.calls))
	}
}

func TestFetchAllForUser_UnknownUser(t *testing.T) {
	r := New(store.NewMemoryStore(), &fakeFetcher{})

	results := r.FetchAllForUser(context.Background(), "nonexistent@example.com")

	if len(results) != len(oura.AllCategories()) {
		t.Fatalf("expected all categories present, got %d", len(results))
	}
	for slug, result := range results {
		wrapped, ok := result.(map[string]any)
		if !ok {
			t.Fatalf("%s: expected wrapped error, got %T", slug, result)
		}
		if _, ok := wrapped["_error"]; !ok {
			t.Errorf("%s: expected _error entry, got %v", slug, wrapped)
		}
	}
}
