package iotdb

import (
	"strconv"
	"strings"

	"github.com/ferritewatch/ferrite-core/internal/infrastructure/config"
	"github.com/ferritewatch/ferrite-core/internal/metrics"
)

// backQuote is the IoTDB identifier quote character.
const backQuote = "`"

// storageGroup is the fixed namespace root all Ferrite series live under.
const storageGroup = "root.ferrite"

// Version is the backend schema version. Identifier quoting of the numeric
// monitor-id segment differs between versions, so the value is threaded
// through the path codec instead of being compared at call sites.
type Version int

// Supported backend versions.
const (
	// V013 covers the 0.13.x line, which accepts bare numeric path segments
	// on insert.
	V013 Version = iota

	// V10 covers 1.0.x and later, which require numeric segments quoted.
	V10
)

// versionFromTag maps a config version tag onto a Version. Unknown tags
// fall back to V10; config validation rejects them before this runs.
func versionFromTag(tag string) Version {
	if tag == config.IoTDBVersionV013 {
		return V013
	}
	return V10
}

// Quote escapes a path segment or column name for use in IoTDB SQL.
//
// Empty segments and segments already wrapped in back-quotes are returned
// unchanged. Otherwise the wildcard character is replaced with a safe
// substitute and the whole segment is wrapped in back-quotes, which keeps
// reserved words (e.g., "nodes") usable as metric names.
//
// This is the one bit-exact contract external tooling may depend on:
// escape `*` to `-`, wrap in back-quotes when not already quoted.
func Quote(segment string) string {
	if segment == "" || (strings.HasPrefix(segment, backQuote) && strings.HasSuffix(segment, backQuote) && len(segment) >= 2) {
		return segment
	}
	segment = strings.ReplaceAll(segment, "*", "-")
	return backQuote + segment + backQuote
}

// DevicePath builds the hierarchical device identifier for one monitor's
// metric set, optionally narrowed to one labeled instance.
//
// Layout: root.ferrite.{app}.{metrics}.{monitor_id}[.{labels}]
//
// The labels segment is appended only when labels is non-empty and not the
// null sentinel. The monitor-id segment is quoted on V10 backends
// unconditionally; the quoted flag forces quoting of every segment, which
// device-discovery queries require for consistent child paths.
//
// Determinism matters here: instance labels are later derived from
// discovered child paths by prefix stripping, so the same inputs must always
// produce the same string.
func DevicePath(version Version, app, metricsName string, monitorID int64, labels string, quoted bool) string {
	maybeQuote := func(s string) string {
		if quoted {
			return Quote(s)
		}
		return s
	}

	id := strconv.FormatInt(monitorID, 10)
	if version == V10 || quoted {
		id = Quote(id)
	}

	path := storageGroup + "." + maybeQuote(app) + "." + maybeQuote(metricsName) + "." + id
	if labels != "" && labels != metrics.NullValue {
		path += "." + Quote(labels)
	}
	return path
}

// DeriveInstanceLabel extracts the instance label from a discovered child
// path by stripping the parent prefix plus one separator character.
//
// This is a textual suffix computation, not a semantic parse: parent must
// be the exact unquoted-form prefix the child was discovered under. A child
// that does not extend the parent yields "".
func DeriveInstanceLabel(parent, child string) string {
	if len(child) <= len(parent)+1 || !strings.HasPrefix(child, parent+".") {
		return ""
	}
	return child[len(parent)+1:]
}
