package shared

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// TimeoutAttempt is one (connect, read) timeout pair in an escalation policy.
type TimeoutAttempt struct {
	Connect time.Duration
	Read    time.Duration
}

// TimeoutPolicy is an ordered sequence of timeout attempts plus the backoff
// applied between attempts. Timeouts and connection failures advance to the
// next attempt; HTTP status errors do not.
type TimeoutPolicy struct {
	Attempts          []TimeoutAttempt
	TimeoutBackoff    time.Duration
	ConnectionBackoff time.Duration
}

// ListingFetchPolicy is used for the county listing page.
func ListingFetchPolicy() TimeoutPolicy {
	return TimeoutPolicy{
		Attempts: []TimeoutAttempt{
			{Connect: 60 * time.Second, Read: 90 * time.Second},
			{Connect: 45 * time.Second, Read: 60 * time.Second},
			{Connect: 30 * time.Second, Read: 45 * time.Second},
		},
		TimeoutBackoff:    5 * time.Second,
		ConnectionBackoff: 10 * time.Second,
	}
}

// DocumentFetchPolicy is used for the notice PDF; file downloads get longer
// timeouts and a longer backoff.
func DocumentFetchPolicy() TimeoutPolicy {
	return TimeoutPolicy{
		Attempts: []TimeoutAttempt{
			{Connect: 90 * time.Second, Read: 120 * time.Second},
			{Connect: 60 * time.Second, Read: 90 * time.Second},
			{Connect: 45 * time.Second, Read: 60 * time.Second},
		},
		TimeoutBackoff:    10 * time.Second,
		ConnectionBackoff: 15 * time.Second,
	}
}

// HTTPStatusError is a completed request with a non-success status. It is
// never retried by the fetch loop.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// HTTPClientFactory creates HTTP clients keyed by their timeout pair so the
// same transports are reused across fetches within a run.
type HTTPClientFactory struct {
	mutex   sync.RWMutex
	clients map[string]*http.Client
}

// NewHTTPClientFactory creates a new HTTP client factory.
func NewHTTPClientFactory() *HTTPClientFactory {
	return &HTTPClientFactory{
		clients: make(map[string]*http.Client),
	}
}

// clientFor returns a client whose dialer honors the connect timeout and
// whose header wait honors the read timeout.
func (f *HTTPClientFactory) clientFor(attempt TimeoutAttempt) *http.Client {
	clientKey := fmt.Sprintf("connect_%d_read_%d", attempt.Connect.Milliseconds(), attempt.Read.Milliseconds())

	f.mutex.RLock()
	if client, exists := f.clients[clientKey]; exists {
		f.mutex.RUnlock()
		return client
	}
	f.mutex.RUnlock()

	client := &http.Client{
		Timeout: attempt.Connect + attempt.Read,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   attempt.Connect,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: attempt.Read,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	f.mutex.Lock()
	f.clients[clientKey] = client
	f.mutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"component":  "HTTPClientFactory",
		"connect":    attempt.Connect,
		"read":       attempt.Read,
		"client_key": clientKey,
	}).Debug("Created new HTTP client")

	return client
}

// SetBrowserLikeHeaders configures request headers to mimic browser behavior;
// the county site rejects obvious bot traffic.
func SetBrowserLikeHeaders(request *http.Request, acceptHeader string) {
	request.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36")
	request.Header.Set("Accept", acceptHeader)
	request.Header.Set("Accept-Language", "en-US,en;q=0.5")
	request.Header.Set("Connection", "keep-alive")
	request.Header.Set("Upgrade-Insecure-Requests", "1")
}

// FetchResult carries the body and response metadata needed downstream.
type FetchResult struct {
	Body        []byte
	ContentType string
	StatusCode  int
}

// Fetch retrieves url with the escalating-timeout policy. Timeouts and
// connection failures sleep their class backoff and move to the next attempt;
// any other failure (including non-2xx statuses) propagates immediately.
// Exhausting the policy yields a fetch_exhausted error embedding the last
// underlying cause.
func (f *HTTPClientFactory) Fetch(ctx context.Context, url string, policy TimeoutPolicy, acceptHeader string) (*FetchResult, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "HTTPClientFactory",
		"method":    "Fetch",
		"url":       url,
	})

	var lastAttemptError error

	for attemptNumber, attempt := range policy.Attempts {
		logger.WithFields(logrus.Fields{
			"attempt": attemptNumber + 1,
			"connect": attempt.Connect,
			"read":    attempt.Read,
		}).Info("Fetching with escalation attempt")

		request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
		}
		SetBrowserLikeHeaders(request, acceptHeader)

		response, err := f.clientFor(attempt).Do(request)
		if err != nil {
			retryable, backoff := classifyTransportError(err, policy)
			if !retryable {
				return nil, fmt.Errorf("request to %s failed: %w", url, err)
			}

			lastAttemptError = err
			logger.WithError(err).WithField("attempt", attemptNumber+1).Warn("Fetch attempt failed")

			if attemptNumber < len(policy.Attempts)-1 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
				}
			}
			continue
		}

		body, readErr := io.ReadAll(response.Body)
		response.Body.Close()

		if response.StatusCode < 200 || response.StatusCode >= 300 {
			return nil, &HTTPStatusError{StatusCode: response.StatusCode, URL: url}
		}
		if readErr != nil {
			lastAttemptError = readErr
			logger.WithError(readErr).WithField("attempt", attemptNumber+1).Warn("Failed reading response body")
			if attemptNumber < len(policy.Attempts)-1 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(policy.TimeoutBackoff):
				}
			}
			continue
		}

		logger.WithFields(logrus.Fields{
			"attempt":        attemptNumber + 1,
			"status_code":    response.StatusCode,
			"content_length": len(body),
		}).Info("Fetch successful")

		return &FetchResult{
			Body:        body,
			ContentType: response.Header.Get("Content-Type"),
			StatusCode:  response.StatusCode,
		}, nil
	}

	err := NewPipelineError(
		ErrorKindFetchExhausted,
		fmt.Sprintf("failed to fetch %s after %d attempts", url, len(policy.Attempts)),
		"Fetch",
		false,
		lastAttemptError,
	).WithDetails(map[string]interface{}{"url": url, "attempts": len(policy.Attempts)})
	err.LogError()
	return nil, err
}

// classifyTransportError decides whether a transport error advances the
// escalation loop and which backoff class applies.
func classifyTransportError(err error, policy TimeoutPolicy) (retryable bool, backoff time.Duration) {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true, policy.TimeoutBackoff
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true, policy.ConnectionBackoff
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.EOF) {
		return true, policy.ConnectionBackoff
	}
	if strings.Contains(strings.ToLower(err.Error()), "connection") {
		return true, policy.ConnectionBackoff
	}

	return false, 0
}
