package telegram

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/intakebot/core/telegram/netutil"
)

const (
	dialTimeout      = 5 * time.Second
	tlsHandshake     = 5 * time.Second
	idleConnTimeout  = 30 * time.Second
	keepAlive        = 30 * time.Second
	headerAllowance  = 5 * time.Second
	requestAllowance = 20 * time.Second
	retryAttempts    = 3
	retryBackoff     = 2 * time.Second
)

// BuildHTTPClient returns the client used for Bot API calls. Telegram holds a
// getUpdates response for up to pollTimeout, so header and request deadlines
// are stretched past it.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshake,
		ResponseHeaderTimeout: pollTimeout + headerAllowance,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout: pollTimeout + requestAllowance,
		Transport: &retryTransport{
			base:       transport,
			maxRetries: retryAttempts,
			backoff:    retryBackoff,
		},
	}
}

// retryTransport repeats requests that failed at the transport level. Calls
// that may already have reached Telegram are only repeated for getUpdates, so
// a timed out sendMessage is never delivered twice.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	var lastErr error
	for attempt := 1; attempt <= t.maxRetries+1; attempt++ {
		curr, err := rewind(req, attempt)
		if err != nil {
			return nil, err
		}
		resp, err := base.RoundTrip(curr)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt > t.maxRetries || !retryable(req, err) {
			break
		}
		if err := sleepCtx(req, t.backoff*time.Duration(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// rewind prepares req for another attempt; bodies without GetBody cannot be replayed.
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 1 {
		return req, nil
	}
	curr := req.Clone(req.Context())
	if req.Body == nil {
		return curr, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("telegram: request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	curr.Body = body
	return curr, nil
}

func retryable(req *http.Request, err error) bool {
	if !netutil.ShouldRetry(err) {
		return false
	}
	if strings.HasSuffix(req.URL.Path, "/getUpdates") {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func sleepCtx(req *http.Request, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}
