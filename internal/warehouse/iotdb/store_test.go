package iotdb

import (
	"context"
	"strings"

	"github.com/ferritewatch/ferrite-core/internal/infrastructure/logging"
)

// fakeResult replays canned rows through the ResultSet interface.
type fakeResult struct {
	columns []string
	rows    []RowRecord
	cursor  int
	closed  bool
}

func (r *fakeResult) Next() bool {
	if r.cursor >= len(r.rows) {
		return false
	}
	r.cursor++
	return true
}

func (r *fakeResult) Record() RowRecord { return r.rows[r.cursor-1] }
func (r *fakeResult) Columns() []string { return r.columns }
func (r *fakeResult) Err() error        { return nil }
func (r *fakeResult) Close() error      { r.closed = true; return nil }

// fakePool is an in-memory SessionPool. Queries are matched by substring
// against registered fragments, in registration order.
type fakePool struct {
	pingErr   error
	insertErr error

	statements []string
	queries    []string
	inserted   []capturedTablet

	fragments []string
	results   map[string][]RowRecord
	queryErr  map[string]error
	open      []*fakeResult
}

// capturedTablet is a deep copy of an inserted tablet, taken because the
// store resets tablets after flushing.
type capturedTablet struct {
	Device       string
	Measurements []string
	Timestamps   []int64
	Values       [][]any
}

func newFakePool() *fakePool {
	return &fakePool{
		results:  make(map[string][]RowRecord),
		queryErr: make(map[string]error),
	}
}

// on registers canned rows for any query containing fragment.
func (p *fakePool) on(fragment string, rows []RowRecord) {
	p.fragments = append(p.fragments, fragment)
	p.results[fragment] = rows
}

// failOn registers an error for any query containing fragment.
func (p *fakePool) failOn(fragment string, err error) {
	p.fragments = append(p.fragments, fragment)
	p.queryErr[fragment] = err
}

func (p *fakePool) Ping(ctx context.Context) error { return p.pingErr }

func (p *fakePool) ExecuteStatement(ctx context.Context, sql string) error {
	p.statements = append(p.statements, sql)
	return nil
}

func (p *fakePool) ExecuteQuery(ctx context.Context, sql string) (ResultSet, error) {
	p.queries = append(p.queries, sql)
	for _, frag := range p.fragments {
		if !strings.Contains(sql, frag) {
			continue
		}
		if err, ok := p.queryErr[frag]; ok {
			return nil, err
		}
		rs := &fakeResult{rows: p.results[frag]}
		p.open = append(p.open, rs)
		return rs, nil
	}
	rs := &fakeResult{}
	p.open = append(p.open, rs)
	return rs, nil
}

func (p *fakePool) InsertTablet(ctx context.Context, t *Tablet) error {
	cp := capturedTablet{
		Device:       t.Device,
		Measurements: append([]string(nil), t.Measurements...),
		Timestamps:   append([]int64(nil), t.Timestamps...),
	}
	for _, col := range t.Values {
		cp.Values = append(cp.Values, append([]any(nil), col...))
	}
	p.inserted = append(p.inserted, cp)
	return p.insertErr
}

func (p *fakePool) Close() error { return nil }

// allClosed reports whether every result set handed out was closed.
func (p *fakePool) allClosed() bool {
	for _, rs := range p.open {
		if !rs.closed {
			return false
		}
	}
	return true
}

// newTestStore creates an available store backed by the fake pool.
func newTestStore(pool SessionPool) *Store {
	return &Store{
		pool:      pool,
		version:   V10,
		logger:    logging.Default(),
		available: true,
	}
}
