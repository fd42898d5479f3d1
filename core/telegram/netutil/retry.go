// Package netutil classifies Bot API failures for retry decisions.
package netutil

import (
	"errors"
	"net"
	"time"

	tele "gopkg.in/telebot.v4"
)

// maxFloodWait caps how long a caller is asked to wait on a 429 before giving up.
const maxFloodWait = 30 * time.Second

// ShouldRetry reports whether err is transient: a short flood wait, a failed
// dial or a timeout anywhere in the chain.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := RetryAfter(err); ok {
		return true
	}
	var op *net.OpError
	if errors.As(err, &op) && op.Op == "dial" {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// RetryAfter returns the wait demanded by a 429, at least a second. Waits over
// maxFloodWait report false.
func RetryAfter(err error) (time.Duration, bool) {
	var flood tele.FloodError
	if !errors.As(err, &flood) {
		return 0, false
	}
	wait := max(time.Duration(flood.RetryAfter)*time.Second, time.Second)
	return wait, wait <= maxFloodWait
}
