package iotdb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestRESTPool_Ping verifies the probe endpoint and auth header.
func TestRESTPool_Ping(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			t.Fatalf("path = %q, want /ping", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	pool := NewRESTPool(server.URL, "root", "root", 0)
	if err := pool.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	// "root:root" base64 encoded.
	if gotAuth != "Basic cm9vdDpyb290" {
		t.Errorf("Authorization = %q, want basic root credentials", gotAuth)
	}
}

// TestRESTPool_PingFailure verifies a non-200 probe is surfaced.
func TestRESTPool_PingFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	pool := NewRESTPool(server.URL, "root", "root", 0)
	err := pool.Ping(context.Background())
	if err == nil {
		t.Fatal("Ping() succeeded against unhealthy backend")
	}
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Ping() error = %v, want ErrConnectionFailed", err)
	}
}

// TestRESTPool_ExecuteQuery verifies request shape and column-major
// response decoding.
func TestRESTPool_ExecuteQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v2/query" {
			t.Fatalf("path = %q, want /rest/v2/query", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("invalid request body: %v", err)
		}
		if body["sql"] == "" {
			t.Fatal("request body missing sql")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"expressions": ["usage"],
			"column_names": null,
			"timestamps": [100, 200],
			"values": [[1.5, null]]
		}`))
	}))
	defer server.Close()

	pool := NewRESTPool(server.URL, "root", "root", 0)
	rs, err := pool.ExecuteQuery(context.Background(), "SELECT `usage` FROM root.ferrite.`a`.`b`.`1`")
	if err != nil {
		t.Fatalf("ExecuteQuery() error = %v", err)
	}
	defer rs.Close()

	if cols := rs.Columns(); len(cols) != 1 || cols[0] != "usage" {
		t.Errorf("Columns() = %v, want [usage]", cols)
	}

	var rows []RowRecord
	for rs.Next() {
		rows = append(rows, rs.Record())
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Timestamp != 100 || rows[0].Values[0] != 1.5 {
		t.Errorf("row[0] = %+v, want 1.5 at 100", rows[0])
	}
	if rows[1].Values[0] != nil {
		t.Errorf("row[1] value = %v, want nil", rows[1].Values[0])
	}
}

// TestRESTPool_ExecuteQuery_MetadataRows verifies decoding of metadata
// statements, which the backend answers with null timestamps and rows
// carried only in the value columns.
func TestRESTPool_ExecuteQuery_MetadataRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"column_names": ["devices", "isAligned"],
			"timestamps": null,
			"values": [
				["root.ferrite.` + "`linux`.`cpu`.`412`.`instA`" + `", "root.ferrite.` + "`linux`.`cpu`.`412`.`instB`" + `"],
				["false", "false"]
			]
		}`))
	}))
	defer server.Close()

	pool := NewRESTPool(server.URL, "root", "root", 0)
	rs, err := pool.ExecuteQuery(context.Background(), "SHOW DEVICES root.ferrite.`linux`.`cpu`.`412`.*")
	if err != nil {
		t.Fatalf("ExecuteQuery() error = %v", err)
	}
	defer rs.Close()

	var devices []string
	for rs.Next() {
		rec := rs.Record()
		if rec.Timestamp != 0 {
			t.Errorf("metadata row timestamp = %d, want 0", rec.Timestamp)
		}
		if name, ok := rec.Values[0].(string); ok {
			devices = append(devices, name)
		}
	}
	if len(devices) != 2 {
		t.Fatalf("devices = %v, want 2 rows", devices)
	}
	if devices[0] != "root.ferrite.`linux`.`cpu`.`412`.`instA`" {
		t.Errorf("devices[0] = %q", devices[0])
	}
}

// TestGetHistory_DiscoveryOverREST verifies instance fan-out end to end
// against the REST decoding path: discovery answers in metadata shape,
// the per-instance reads answer in series shape.
func TestGetHistory_DiscoveryOverREST(t *testing.T) {
	base := "root.ferrite.`linux`.`cpu`.`412`"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("invalid request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(body["sql"], "SHOW DEVICES") {
			_, _ = w.Write([]byte(`{
				"column_names": ["devices", "isAligned"],
				"timestamps": null,
				"values": [["` + base + ".`instA`" + `", "` + base + ".`instB`" + `"], ["false", "false"]]
			}`))
			return
		}
		_, _ = w.Write([]byte(`{
			"expressions": ["usage"],
			"timestamps": [1000],
			"values": [[7.25]]
		}`))
	}))
	defer server.Close()

	store := newTestStore(NewRESTPool(server.URL, "root", "root", 0))
	got := store.GetHistory(context.Background(), historyQuery(nil))

	if len(got) != 2 {
		t.Fatalf("instances = %d, want 2: %v", len(got), got)
	}
	for _, key := range []string{"`instA`", "`instB`"} {
		if len(got[key]) != 1 || got[key][0].Origin != "7.25" {
			t.Errorf("got[%q] = %+v, want one sample 7.25", key, got[key])
		}
	}
}

// TestRESTPool_QueryTimeoutScope verifies the configured timeout bounds
// query execution only, leaving writes and statements on the pool default.
func TestRESTPool_QueryTimeoutScope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/rest/v2/query" {
			_, _ = w.Write([]byte(`{"timestamps": [], "values": []}`))
			return
		}
		_, _ = w.Write([]byte(`{"code": 200, "message": "ok"}`))
	}))
	defer server.Close()

	pool := NewRESTPool(server.URL, "root", "root", 10)

	if _, err := pool.ExecuteQuery(context.Background(), "SELECT `usage` FROM root.ferrite.`a`.`b`.`1`"); err == nil {
		t.Error("ExecuteQuery() ignored the configured timeout")
	}

	if err := pool.ExecuteStatement(context.Background(), "show databases"); err != nil {
		t.Errorf("ExecuteStatement() bounded by query timeout: %v", err)
	}

	tablet := NewTablet("root.ferrite.`a`.`b`.`1`", []string{"`usage`"}, []DataType{TypeDouble})
	tablet.AddRow(100)
	tablet.Set(0, 1.0)
	if err := pool.InsertTablet(context.Background(), tablet); err != nil {
		t.Errorf("InsertTablet() bounded by query timeout: %v", err)
	}
}

// TestRESTPool_ExecuteStatement verifies backend error codes become errors.
func TestRESTPool_ExecuteStatement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v2/nonQuery" {
			t.Fatalf("path = %q, want /rest/v2/nonQuery", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code": 305, "message": "storage group already exists"}`))
	}))
	defer server.Close()

	pool := NewRESTPool(server.URL, "root", "root", 0)
	err := pool.ExecuteStatement(context.Background(), "CREATE DATABASE root.ferrite")
	if err == nil {
		t.Fatal("ExecuteStatement() succeeded despite backend error code")
	}
}

// TestRESTPool_InsertTablet verifies the tablet request body layout.
func TestRESTPool_InsertTablet(t *testing.T) {
	var got restTablet
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v2/insertTablet" {
			t.Fatalf("path = %q, want /rest/v2/insertTablet", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("invalid request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code": 200, "message": "ok"}`))
	}))
	defer server.Close()

	tablet := NewTablet("root.ferrite.`linux`.`cpu`.`1`",
		[]string{"`usage`", "`state`"}, []DataType{TypeDouble, TypeText})
	tablet.AddRow(100)
	tablet.Set(0, 42.5)
	tablet.Set(1, "ok")

	pool := NewRESTPool(server.URL, "root", "root", 0)
	if err := pool.InsertTablet(context.Background(), tablet); err != nil {
		t.Fatalf("InsertTablet() error = %v", err)
	}

	if got.Device != tablet.Device {
		t.Errorf("device = %q, want %q", got.Device, tablet.Device)
	}
	if len(got.Timestamps) != 1 || got.Timestamps[0] != 100 {
		t.Errorf("timestamps = %v, want [100]", got.Timestamps)
	}
	if len(got.DataTypes) != 2 || got.DataTypes[0] != "DOUBLE" || got.DataTypes[1] != "TEXT" {
		t.Errorf("data_types = %v, want [DOUBLE TEXT]", got.DataTypes)
	}
	if len(got.Values) != 2 {
		t.Fatalf("values columns = %d, want 2", len(got.Values))
	}
	if got.Values[0][0] != 42.5 || got.Values[1][0] != "ok" {
		t.Errorf("values = %v", got.Values)
	}
}
