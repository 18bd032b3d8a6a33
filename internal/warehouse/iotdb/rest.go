package iotdb

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default timeouts for backend operations. Writes and schema statements
// always use defaultRequestTimeout; the configured query timeout bounds
// query execution only.
const (
	defaultPingTimeout    = 10 * time.Second
	defaultQueryTimeout   = 60 * time.Second
	defaultRequestTimeout = 60 * time.Second
)

// restSuccessCode is the status IoTDB reports in response bodies on success.
const restSuccessCode = 200

// restPool is a SessionPool backed by the IoTDB REST v2 API. All requests
// carry HTTP basic auth; connection pooling is delegated to net/http.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
type restPool struct {
	baseURL      string
	authHeader   string
	queryTimeout time.Duration
	httpClient   *http.Client
}

// NewRESTPool creates a session pool speaking the REST v2 API at the given
// base URL (scheme, host and port, e.g. "http://localhost:18080").
//
// Parameters:
//   - baseURL: Backend endpoint, trailing slashes are stripped
//   - username: Basic auth user
//   - password: Basic auth password
//   - queryTimeout: Query execution timeout in milliseconds, <=0 uses a
//     default. Writes and schema statements are not bounded by it.
//
// Returns:
//   - SessionPool: Ready pool; connectivity is not verified here, call Ping
func NewRESTPool(baseURL, username, password string, queryTimeout int64) SessionPool {
	timeout := defaultQueryTimeout
	if queryTimeout > 0 {
		timeout = time.Duration(queryTimeout) * time.Millisecond
	}

	creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))

	return &restPool{
		baseURL:      strings.TrimRight(baseURL, "/"),
		authHeader:   "Basic " + creds,
		queryTimeout: timeout,
		httpClient:   &http.Client{Timeout: defaultRequestTimeout},
	}
}

// restStatus is the minimal envelope every non-query response carries.
type restStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// restQueryResult is the REST v2 query response. Values are column-major:
// one slice per selected column, aligned with Timestamps.
type restQueryResult struct {
	Code        int      `json:"code,omitempty"`
	Message     string   `json:"message,omitempty"`
	Expressions []string `json:"expressions"`
	ColumnNames []string `json:"column_names"`
	Timestamps  []int64  `json:"timestamps"`
	Values      [][]any  `json:"values"`
}

// restTablet is the REST v2 insertTablet request body.
type restTablet struct {
	Timestamps   []int64  `json:"timestamps"`
	Measurements []string `json:"measurements"`
	DataTypes    []string `json:"data_types"`
	Values       [][]any  `json:"values"`
	IsAligned    bool     `json:"is_aligned"`
	Device       string   `json:"device"`
}

// Ping verifies the backend is reachable.
func (p *restPool) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/ping", nil)
	if err != nil {
		return fmt.Errorf("iotdb ping: %w", err)
	}
	req.Header.Set("Authorization", p.authHeader)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ping status %d", ErrConnectionFailed, resp.StatusCode)
	}
	return nil
}

// ExecuteStatement runs a DDL or administrative statement via nonQuery.
func (p *restPool) ExecuteStatement(ctx context.Context, sql string) error {
	var status restStatus
	if err := p.post(ctx, "/rest/v2/nonQuery", map[string]string{"sql": sql}, &status); err != nil {
		return err
	}
	if status.Code != restSuccessCode {
		return fmt.Errorf("%w: %s (code %d)", ErrQueryFailed, status.Message, status.Code)
	}
	return nil
}

// ExecuteQuery runs a read statement and wraps the decoded body in a
// ResultSet. The pool's query timeout bounds the round trip.
func (p *restPool) ExecuteQuery(ctx context.Context, sql string) (ResultSet, error) {
	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	var result restQueryResult
	if err := p.post(ctx, "/rest/v2/query", map[string]string{"sql": sql}, &result); err != nil {
		return nil, err
	}
	if result.Code != 0 && result.Code != restSuccessCode {
		return nil, fmt.Errorf("%w: %s (code %d)", ErrQueryFailed, result.Message, result.Code)
	}

	columns := result.ColumnNames
	if len(columns) == 0 {
		columns = result.Expressions
	}
	return &restResult{columns: columns, result: &result, rows: rowCount(&result), cursor: -1}, nil
}

// InsertTablet writes one batch of aligned rows for a single device.
func (p *restPool) InsertTablet(ctx context.Context, t *Tablet) error {
	types := make([]string, len(t.Types))
	for i, dt := range t.Types {
		switch dt {
		case TypeText:
			types[i] = "TEXT"
		default:
			types[i] = "DOUBLE"
		}
	}

	body := restTablet{
		Timestamps:   t.Timestamps,
		Measurements: t.Measurements,
		DataTypes:    types,
		Values:       t.Values,
		IsAligned:    false,
		Device:       t.Device,
	}

	var status restStatus
	if err := p.post(ctx, "/rest/v2/insertTablet", body, &status); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if status.Code != restSuccessCode {
		return fmt.Errorf("%w: %s (code %d)", ErrWriteFailed, status.Message, status.Code)
	}
	return nil
}

// Close releases pooled connections.
func (p *restPool) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// post sends a JSON request body and decodes the JSON response into out.
func (p *restPool) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("iotdb request encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("iotdb request: %w", err)
	}
	req.Header.Set("Authorization", p.authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("iotdb request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("iotdb response read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("iotdb request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("iotdb response decode: %w", err)
	}
	return nil
}

// restResult adapts a fully decoded query body to the row-at-a-time
// ResultSet interface. The REST API returns complete result bodies, so
// iteration never fails after a successful decode.
type restResult struct {
	columns []string
	result  *restQueryResult
	rows    int
	cursor  int
}

// rowCount derives the number of rows in a decoded body. Metadata
// statements (SHOW DEVICES, show databases) carry null timestamps with
// rows present only in the value columns, so the longest column wins.
func rowCount(result *restQueryResult) int {
	rows := len(result.Timestamps)
	for _, col := range result.Values {
		if len(col) > rows {
			rows = len(col)
		}
	}
	return rows
}

func (r *restResult) Next() bool {
	if r.cursor+1 >= r.rows {
		return false
	}
	r.cursor++
	return true
}

func (r *restResult) Record() RowRecord {
	values := make([]any, len(r.result.Values))
	for col := range r.result.Values {
		if r.cursor < len(r.result.Values[col]) {
			values[col] = r.result.Values[col][r.cursor]
		}
	}
	var ts int64
	if r.cursor < len(r.result.Timestamps) {
		ts = r.result.Timestamps[r.cursor]
	}
	return RowRecord{Timestamp: ts, Values: values}
}

func (r *restResult) Columns() []string { return r.columns }

func (r *restResult) Err() error { return nil }

func (r *restResult) Close() error { return nil }
