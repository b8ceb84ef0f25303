package domain

import "errors"

// Error taxonomy. Adapters wrap the sentinel that matches the failure kind
// with fmt.Errorf("...: %w", err) so callers can errors.Is/errors.As against
// the taxonomy regardless of which adapter produced the failure.
var (
	// ErrConfig covers missing fields and unknown connector/store types.
	// Fatal at startup.
	ErrConfig = errors.New("config error")

	// ErrAuth covers bad credentials and expired tokens.
	// Retry the token once; otherwise fatal for the connector.
	ErrAuth = errors.New("auth error")

	// ErrTransport covers 5xx responses, connection resets, and timeouts.
	// Exponential backoff, 3 attempts, then skip the unit of work.
	ErrTransport = errors.New("transport error")

	// ErrRateLimit covers HTTP 429. Honor Retry-After, retry once, then
	// back off.
	ErrRateLimit = errors.New("rate limited")

	// ErrIntegrity covers checksum mismatches and truncated payloads.
	// Fails the document; the pipeline continues.
	ErrIntegrity = errors.New("integrity error")

	// ErrStorage covers bucket provisioning and put failures. Retried 3x;
	// a document that fails to persist is never indexed.
	ErrStorage = errors.New("storage error")

	// ErrParse covers malformed source records. The record is skipped
	// with a warning; the connector is not aborted.
	ErrParse = errors.New("parse error")

	// ErrLLMParse covers an LLM response that doesn't match the expected
	// grammar. Defaults are used and the raw response is recorded.
	ErrLLMParse = errors.New("llm parse error")

	// ErrNotFound covers a document missing at enrichment time. The
	// document is skipped and progress still advances.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a uniqueness constraint would be violated.
	ErrAlreadyExists = errors.New("already exists")

	// ErrTokenInvalid covers a missing, malformed, or unparsable bearer
	// token. The request is rejected with 401; never retried.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired covers a token or session past its expiry. The
	// caller must obtain a new session out-of-band.
	ErrTokenExpired = errors.New("token expired")

	// ErrSessionNotFound covers a session ID with no matching record,
	// typically after revocation. Treated the same as an expired token.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnauthorized covers a valid session whose role lacks the
	// permission the handler requires.
	ErrUnauthorized = errors.New("unauthorized")
)
