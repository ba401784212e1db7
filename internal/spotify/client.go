// Package spotify is a small Spotify Web API client covering track search
// and audio features, authenticated with the client-credentials flow.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/banshee-data/chartlab/internal/config"
	"github.com/banshee-data/chartlab/internal/dataset"
	"github.com/banshee-data/chartlab/internal/httputil"
	"github.com/banshee-data/chartlab/internal/monitoring"
	"github.com/banshee-data/chartlab/internal/timeutil"
)

const (
	// DefaultRequestsPerSecond keeps well under the Web API's rolling limit.
	DefaultRequestsPerSecond = 5
	defaultMaxRetries        = 3
	defaultRetryAfter        = time.Second
	// maxAudioFeatureIDs is the API's per-request id limit.
	maxAudioFeatureIDs = 100
)

// ErrNotFound is returned when a search matches no track.
var ErrNotFound = errors.New("spotify: track not found")

// APIError is a non-2xx answer from the Web API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify: status %d: %s", e.StatusCode, e.Body)
}

// Options tune a Client. Zero values select the defaults.
type Options struct {
	// HTTPClient replaces the OAuth2 client; it must add authorization itself.
	HTTPClient httputil.HTTPClient
	// Limiter paces outgoing requests; nil means DefaultRequestsPerSecond.
	Limiter    *rate.Limiter
	Clock      timeutil.Clock
	MaxRetries int
}

// Client talks to the Spotify Web API.
type Client struct {
	http       httputil.HTTPClient
	baseURL    string
	limiter    *rate.Limiter
	clock      timeutil.Clock
	maxRetries int
}

// NewClient builds a client for creds. Without an injected HTTPClient it
// fetches and refreshes tokens from creds.TokenURL using ctx.
func NewClient(ctx context.Context, creds config.SpotifyCredentials, opts Options) (*Client, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, config.ErrMissingCredentials
	}

	c := &Client{
		http:       opts.HTTPClient,
		baseURL:    strings.TrimRight(creds.APIBaseURL, "/"),
		limiter:    opts.Limiter,
		clock:      opts.Clock,
		maxRetries: opts.MaxRetries,
	}
	if c.http == nil {
		cc := clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     creds.TokenURL,
		}
		c.http = cc.Client(ctx)
	}
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(DefaultRequestsPerSecond, 1)
	}
	if c.clock == nil {
		c.clock = timeutil.RealClock{}
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	return c, nil
}

// Artist is a credited artist of a track.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track is a search result.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Popularity int      `json:"popularity"`
	DurationMS int      `json:"duration_ms"`
	Explicit   bool     `json:"explicit"`
	Artists    []Artist `json:"artists"`
}

// PrimaryArtist returns the first credited artist's name.
func (t *Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

type searchResponse struct {
	Tracks struct {
		Items []Track `json:"items"`
	} `json:"tracks"`
}

// SearchTrack returns the best match for a track title by artist.
func (c *Client) SearchTrack(ctx context.Context, track, artist string) (*Track, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("track:%s artist:%s", track, artist))
	q.Set("type", "track")
	q.Set("limit", "1")

	var resp searchResponse
	if err := c.get(ctx, "/search?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("search %q by %q: %w", track, artist, err)
	}
	if len(resp.Tracks.Items) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Tracks.Items[0], nil
}

// Features are the audio features of one track.
type Features struct {
	ID string
	dataset.AudioFeatures
}

type audioFeaturesWire struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Key              float64 `json:"key"`
	Loudness         float64 `json:"loudness"`
	Mode             float64 `json:"mode"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	TimeSignature    float64 `json:"time_signature"`
}

// AudioFeatures fetches features for ids, preserving order. Unknown ids
// yield a nil entry.
func (c *Client) AudioFeatures(ctx context.Context, ids []string) ([]*Features, error) {
	out := make([]*Features, 0, len(ids))
	for start := 0; start < len(ids); start += maxAudioFeatureIDs {
		end := min(start+maxAudioFeatureIDs, len(ids))

		var resp struct {
			AudioFeatures []*audioFeaturesWire `json:"audio_features"`
		}
		path := "/audio-features?ids=" + url.QueryEscape(strings.Join(ids[start:end], ","))
		if err := c.get(ctx, path, &resp); err != nil {
			return nil, fmt.Errorf("audio features: %w", err)
		}
		if len(resp.AudioFeatures) != end-start {
			return nil, fmt.Errorf("audio features: got %d entries for %d ids", len(resp.AudioFeatures), end-start)
		}
		for _, w := range resp.AudioFeatures {
			if w == nil {
				out = append(out, nil)
				continue
			}
			out = append(out, &Features{
				ID: w.ID,
				AudioFeatures: dataset.AudioFeatures{
					Danceability:     w.Danceability,
					Energy:           w.Energy,
					Key:              w.Key,
					Loudness:         w.Loudness,
					Mode:             w.Mode,
					Speechiness:      w.Speechiness,
					Acousticness:     w.Acousticness,
					Instrumentalness: w.Instrumentalness,
					Liveness:         w.Liveness,
					Valence:          w.Valence,
					Tempo:            w.Tempo,
					TimeSignature:    w.TimeSignature,
				},
			})
		}
	}
	return out, nil
}

// get performs a rate-limited GET and decodes the JSON body into v. A 429 is
// retried after the server's Retry-After delay.
func (c *Client) get(ctx context.Context, path string, v any) error {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries:
			wait := retryAfter(resp.Header)
			monitoring.Logf("spotify: rate limited, retrying in %s (attempt %d/%d)", wait, attempt+1, c.maxRetries)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.clock.After(wait):
			}
			continue
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}

		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}
}

func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}
