package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Config carries the store endpoint and credentials. ServiceKey is the
// unrestricted server-side credential; AnonKey is the degraded public
// fallback used when no service key is available.
type Config struct {
	URL        string
	ServiceKey string
	AnonKey    string
}

// Store is a client for the relational store's REST interface. A Store built
// from an incomplete Config is still usable; every operation returns
// ErrNotConfigured so handlers can surface the configuration hint.
type Store struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Store {
	key := cfg.ServiceKey
	if key == "" {
		key = cfg.AnonKey

		if key != "" {
			logger.Warn("service-role key missing, falling back to anon key; reads may be restricted")
		}
	}

	return &Store{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     key,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

func (s *Store) configured() bool {
	return s.baseURL != "" && s.apiKey != ""
}

// Agencies returns the repository for agency records.
func (s *Store) Agencies() *Agencies {
	return &Agencies{store: s}
}

// Clients returns the repository for client records.
func (s *Store) Clients() *Clients {
	return &Clients{store: s}
}

// Workflows returns the repository for workflow records.
func (s *Store) Workflows() *Workflows {
	return &Workflows{store: s}
}

// HealthCheck probes connectivity with a minimal read against the clients
// table, the way the original connection test did.
func (s *Store) HealthCheck(ctx context.Context) error {
	if !s.configured() {
		return ErrNotConfigured
	}

	var rows []json.RawMessage

	params := url.Values{}
	params.Set("select", "id")
	params.Set("limit", "1")

	return s.get(ctx, "HealthCheck", "clients", params, &rows)
}

// restError is the PostgREST error body shape.
type restError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (s *Store) do(ctx context.Context, op, method, table string, params url.Values, prefer string, body any, out any) (http.Header, error) {
	if !s.configured() {
		return nil, fmt.Errorf("%s on %s: %w", op, table, ErrNotConfigured)
	}

	endpoint := s.baseURL + "/rest/v1/" + table
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s on %s: failed to encode body: %w", op, table, err)
		}

		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%s on %s: failed to create request: %w", op, table, err)
	}

	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s on %s: request to store failed: %w", op, table, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s on %s: failed to read response: %w", op, table, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var restErr restError
		_ = json.Unmarshal(raw, &restErr)

		storeErr := &StoreError{
			Op:      op,
			Table:   table,
			Code:    restErr.Code,
			Message: restErr.Message,
		}

		if storeErr.Message == "" {
			storeErr.Message = strings.TrimSpace(string(raw))
		}

		if restErr.Code == codeUniqueViolation {
			storeErr.Err = ErrConflict
		}

		return nil, storeErr
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("%s on %s: failed to decode response: %w", op, table, err)
		}
	}

	return resp.Header, nil
}

func (s *Store) get(ctx context.Context, op, table string, params url.Values, out any) error {
	_, err := s.do(ctx, op, http.MethodGet, table, params, "", nil, out)

	return err
}

// insert posts a row and decodes the representation the store returns.
func (s *Store) insert(ctx context.Context, op, table string, row any, out any) error {
	var rows []json.RawMessage
	if _, err := s.do(ctx, op, http.MethodPost, table, nil, "return=representation", row, &rows); err != nil {
		return err
	}

	return decodeSingle(op, table, rows, out)
}

// update patches rows matching params and decodes the first returned row.
func (s *Store) update(ctx context.Context, op, table string, params url.Values, fields any, out any) error {
	var rows []json.RawMessage
	if _, err := s.do(ctx, op, http.MethodPatch, table, params, "return=representation", fields, &rows); err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	return decodeSingle(op, table, rows, out)
}

func (s *Store) delete(ctx context.Context, op, table string, params url.Values) error {
	_, err := s.do(ctx, op, http.MethodDelete, table, params, "", nil, nil)

	return err
}

// count issues a HEAD request with an exact count preference and parses the
// total from the Content-Range header.
func (s *Store) count(ctx context.Context, op, table string) (int64, error) {
	headers, err := s.do(ctx, op, http.MethodHead, table, url.Values{"select": {"id"}}, "count=exact", nil, nil)
	if err != nil {
		return 0, err
	}

	// Content-Range is "<from>-<to>/<total>" or "*/<total>".
	contentRange := headers.Get("Content-Range")

	_, totalPart, found := strings.Cut(contentRange, "/")
	if !found {
		return 0, &StoreError{Op: op, Table: table, Message: "missing Content-Range header on count response"}
	}

	total, err := strconv.ParseInt(totalPart, 10, 64)
	if err != nil {
		return 0, &StoreError{Op: op, Table: table, Message: "unparseable Content-Range total: " + contentRange}
	}

	return total, nil
}

func decodeSingle(op, table string, rows []json.RawMessage, out any) error {
	if len(rows) == 0 {
		return &StoreError{Op: op, Table: table, Message: "store returned no rows", Err: notFoundFor(table)}
	}

	if err := json.Unmarshal(rows[0], out); err != nil {
		return fmt.Errorf("%s on %s: failed to decode row: %w", op, table, err)
	}

	return nil
}

func notFoundFor(table string) error {
	switch table {
	case "agencies":
		return ErrAgencyNotFound
	case "clients":
		return ErrClientNotFound
	case "workflows":
		return ErrWorkflowNotFound
	}

	return ErrClientNotFound
}

func eq(value string) string {
	return "eq." + value
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
