// Package enrich holds the external enrichment collaborators: geocoding and
// profile lookups the sanitizer awaits synchronously. Every lookup either
// returns a structured result or fails; ambiguous responses are never
// silently accepted.
package enrich

import (
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
)

// ErrNotFound is the collaborator's "no result" signal. Callers decide
// whether that fails the dependent field or just omits it.
var ErrNotFound = errors.New("no result found")

const defaultTimeout = 10 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:    10,
			IdleConnTimeout: 90 * time.Second,
		},
		Timeout: timeout,
	}
}

// Config holds the endpoint settings shared by the collaborators
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

type base struct {
	endpoint string
	client   *http.Client
	logger   ectologger.Logger
}
