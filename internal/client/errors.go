package client

import (
	"errors"
	"strconv"
)

// ErrAuthentication is returned when the challenge server rejects the auth
// token (HTTP 401 on /new).
var ErrAuthentication = errors.New("client: authentication failed, check the auth token")

// ErrAlreadySubmitted is returned when the challenge server reports the
// test has already been graded (HTTP 409 on /solve).
var ErrAlreadySubmitted = errors.New("client: test already submitted, use --skip-submission to replay")

// ProtocolError wraps any other non-success response from the challenge
// server: the status code and a short excerpt of the response body, so the
// top-level harness can log something actionable without dumping an
// arbitrarily large payload.
type ProtocolError struct {
	StatusCode int
	Body       string
}

func (e *ProtocolError) Error() string {
	return "client: unexpected response: HTTP " + strconv.Itoa(e.StatusCode) + ": " + e.Body
}
