package logger

import (
	"log/slog"
	"strings"
)

// defaultKeyOrder fixes the position of well-known keys; others follow sorted.
var defaultKeyOrder = strings.Fields(`
	ts level component event status
	rid rid_full run_id ts_unix_nano
	update_id user_id chat_id chat_type handler op cb_key
	outcome duration_ms messages kb queued
	state step lang key admin_state source languages keys payload username
	mode listen public_url db host port
	err err_code cause attempts pending
`)

var knownStatus = setOf("ok", "fail", "skip", "retry", "rate_limited", "cancelled")

// Outcomes are a closed set; anything else is dropped from the line.
var knownOutcome = setOf("ok", "fail", "cancelled", "rate_limited")

func setOf(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

// levelName maps slog levels onto the four names used in log lines.
func levelName(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

// normalizeEnums lowercases status and drops outcomes outside the known set.
// Unknown statuses are kept as written.
func (e entry) normalizeEnums() {
	if s, ok := e.str("status"); ok {
		if low := strings.ToLower(strings.TrimSpace(s)); low != "" {
			if _, known := knownStatus[low]; known {
				e["status"] = low
			}
		}
	}
	if o, ok := e.str("outcome"); ok {
		low := strings.ToLower(strings.TrimSpace(o))
		if _, known := knownOutcome[low]; known {
			e["outcome"] = low
		} else {
			delete(e, "outcome")
		}
	}
}
