package oura

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultWindowDays is the ranged-fetch lookback when the caller gives
	// no explicit date range.
	DefaultWindowDays = 365

	// pointTimeout bounds point lookups and identity resolution;
	// rangedTimeout bounds the larger date-ranged collection fetches.
	pointTimeout  = 30 * time.Second
	rangedTimeout = 60 * time.Second

	// maxErrorBody caps how much of an upstream error body is carried in
	// an UpstreamError.
	maxErrorBody = 300

	dateLayout = "2006-01-02"
)

// DateRange is an inclusive start/end pair in YYYY-MM-DD form.
type DateRange struct {
	Start string
	End   string
}

// DefaultDateRange returns the window of DefaultWindowDays days ending at
// now's date, inclusive.
func DefaultDateRange(now time.Time) DateRange {
	end := now
	start := end.AddDate(0, 0, -DefaultWindowDays)
	return DateRange{
		Start: start.Format(dateLayout),
		End:   end.Format(dateLayout),
	}
}

// Identity is the result of resolving "who owns this token". Resolution
// never fails the caller: when the upstream answers non-2xx or with a
// malformed body, the identity comes back anonymous so the callback flow
// can still persist the tokens somewhere retrievable.
type Identity struct {
	Email    string
	Resolved bool
}

// AnonymousEmail is the sentinel identity used when resolution fails.
const AnonymousEmail = "unknown_user"

// Anonymous returns the fallback identity.
func Anonymous() Identity {
	return Identity{Email: AnonymousEmail, Resolved: false}
}

// String returns the email under which tokens are stored.
func (id Identity) String() string { return id.Email }

// Client talks to the Oura v2 usercollection API with bearer tokens.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// NewClient builds a client for the given usercollection base URL
// (e.g. "https://api.ouraring.com/v2/usercollection").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		now:     time.Now,
	}
}

// ResolveIdentity asks the upstream email endpoint who the token belongs
// to. Any failure is logged and mapped to the anonymous identity.
func (c *Client) ResolveIdentity(ctx context.Context, accessToken string) Identity {
	ctx, cancel := context.WithTimeout(ctx, pointTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, CategoryEmail, accessToken, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to build identity request")
		return Anonymous()
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("identity fetch network error")
		return Anonymous()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("identity fetch failed")
		return Anonymous()
	}

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Email == "" {
		log.Warn().Err(err).Msg("identity response missing email")
		return Anonymous()
	}

	return Identity{Email: payload.Email, Resolved: true}
}

// Fetch retrieves one category for the given token. For ranged categories
// a nil dateRange means the default lookback window computed at call
// time. The returned value is the decoded JSON body for point categories,
// or the unwrapped record sequence for ranged ones.
//
// Failures are typed: UpstreamError (non-2xx), TransportError (request
// never completed), DecodeError (2xx with a bad body).
func (c *Client) Fetch(ctx context.Context, category Category, accessToken string, dateRange *DateRange) (any, error) {
	spec, ok := categoryTable[category]
	if !ok {
		// Unreachable for values produced by ParseCategory.
		return nil, fmt.Errorf("unknown category %q", category)
	}

	timeout := pointTimeout
	var params url.Values
	if spec.mode == ModeRanged {
		timeout = rangedTimeout
		window := DefaultDateRange(c.now())
		if dateRange != nil {
			window = *dateRange
		}
		params = url.Values{
			"start_date": {window.Start},
			"end_date":   {window.End},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.newRequest(ctx, category, accessToken, params)
	if err != nil {
		return nil, TransportError{Err: err}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("category", category.String()).Msg("upstream request failed")
		return nil, TransportError{Err: err}
	}
	defer resp.Body.Close()

	log.Debug().
		Str("category", category.String()).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("upstream request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, DecodeError{Err: err}
	}

	if spec.mode == ModePoint {
		return payload, nil
	}

	// Ranged responses arrive wrapped in an envelope; unwrap the record
	// sequence. A body without a "data" field is used as the sequence.
	if envelope, ok := payload.(map[string]any); ok {
		if data, ok := envelope["data"]; ok {
			return data, nil
		}
	}
	return payload, nil
}

func (c *Client) newRequest(ctx context.Context, category Category, accessToken string, params url.Values) (*http.Request, error) {
	u := c.baseURL + categoryTable[category].path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return req, nil
}
