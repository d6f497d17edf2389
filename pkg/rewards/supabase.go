package rewards

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vapefi/puffd/internal/httpc"
)

// SupabaseConfig configures the PostgREST sink.
type SupabaseConfig struct {
	URL   string // Project URL, e.g. https://xyz.supabase.co
	Key   string // Service or anon key
	Table string // Table receiving one row per puff

	// HTTPClient overrides the shared client (tests).
	HTTPClient *http.Client
}

// SupabaseSink inserts puffs into a Supabase table through its REST API.
type SupabaseSink struct {
	endpoint string
	key      string
	client   *http.Client
}

// puffRow is the inserted row.
type puffRow struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Wallet     string    `json:"wallet"`
	Sequence   int       `json:"sequence"`
	Confidence int       `json:"confidence"`
	DetectedAt time.Time `json:"detected_at"`
}

// NewSupabaseSink validates cfg and creates a sink.
func NewSupabaseSink(cfg SupabaseConfig) (*SupabaseSink, error) {
	if cfg.URL == "" {
		return nil, ErrNoURL
	}
	if cfg.Key == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Table == "" {
		cfg.Table = "puff_events"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpc.Client
	}
	return &SupabaseSink{
		endpoint: strings.TrimRight(cfg.URL, "/") + "/rest/v1/" + cfg.Table,
		key:      cfg.Key,
		client:   client,
	}, nil
}

// Record implements Sink.
func (s *SupabaseSink) Record(ctx context.Context, p Puff) error {
	row := puffRow{
		ID:         p.ID,
		SessionID:  p.SessionID,
		Wallet:     p.Wallet,
		Sequence:   p.Sequence,
		Confidence: p.Confidence,
		DetectedAt: p.DetectedAt.UTC(),
	}

	req, err := httpc.NewJSONRequest(ctx, http.MethodPost, s.endpoint, row)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("rewards: insert puff: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return parseAPIError(resp)
}

// parseAPIError decodes a PostgREST error body.
func parseAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var pe struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	if json.Unmarshal(body, &pe) == nil && pe.Message != "" {
		apiErr.Message = pe.Message
		apiErr.Code = pe.Code
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
