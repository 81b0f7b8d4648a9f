// Package client is the HTTP half of C5: it speaks the challenge server's
// two-endpoint wire protocol (spec §6). No ecosystem HTTP client library
// appears anywhere in the retrieval pack, so this is built directly on
// net/http the way the teacher builds its own outbound calls — a
// configured *http.Client with an explicit timeout, no hidden defaults.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudkitchen/fulfillment-runner/internal/kitchen"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// bodyExcerptLimit bounds how much of a failing response body gets folded
// into a ProtocolError; challenge-server error bodies are short, but
// nothing guarantees that.
const bodyExcerptLimit = 256

// Client talks to the challenge server at a fixed base endpoint.
type Client struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
	logger     *zap.Logger
}

// New builds a Client against endpoint (e.g.
// "https://api.cloudkitchens.com/interview/challenge") using authToken for
// every request. logger may be nil.
func New(endpoint, authToken string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:   endpoint,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

// FetchProblem requests a new problem, optionally pinned to seed, and
// returns the server-assigned test ID and the order list.
func (c *Client) FetchProblem(ctx context.Context, seed *int64) (string, []kitchen.Order, error) {
	u := c.endpoint + "/new?auth=" + url.QueryEscape(c.authToken)
	if seed != nil {
		u += "&seed=" + strconv.FormatInt(*seed, 10)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", nil, fmt.Errorf("client: building fetch request: %w", err)
	}

	c.logger.Info("fetching new problem", zap.String("endpoint", c.endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("client: fetch request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, protocolErrorFrom(resp)
	}

	testID := resp.Header.Get("x-test-id")
	if testID == "" {
		return "", nil, fmt.Errorf("client: fetch response carried no x-test-id header")
	}

	var orders []kitchen.Order
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return "", nil, fmt.Errorf("client: decoding order list: %w", err)
	}

	c.logger.Info("fetched problem", zap.String("test_id", testID), zap.Int("order_count", len(orders)))
	return testID, orders, nil
}

// SubmitSolution posts the finished run's ledger for grading.
func (c *Client) SubmitSolution(ctx context.Context, testID string, ledger []kitchen.LedgerEntry, opts Options) (string, error) {
	u := c.endpoint + "/solve?auth=" + url.QueryEscape(c.authToken)

	body, err := json.Marshal(toSolveRequest(opts, ledger))
	if err != nil {
		return "", fmt.Errorf("client: encoding solve request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("client: building solve request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-test-id", testID)

	c.logger.Info("submitting solution", zap.String("test_id", testID), zap.Int("action_count", len(ledger)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("client: solve request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", protocolErrorFrom(resp)
	}

	result, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("client: reading solve response: %w", err)
	}

	c.logger.Info("solution accepted", zap.String("test_id", testID), zap.String("result", string(result)))
	return string(result), nil
}

func protocolErrorFrom(resp *http.Response) error {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, bodyExcerptLimit))

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrAuthentication
	case http.StatusConflict:
		return ErrAlreadySubmitted
	default:
		return &ProtocolError{StatusCode: resp.StatusCode, Body: string(excerpt)}
	}
}
