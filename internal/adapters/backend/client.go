// Package backend is the portal's client for the Go-Pods backend: a single
// RPC-style endpoint that accepts POSTed JSON bodies of the form
// {action, ...fields, token?} and answers {ok:true, ...} or {ok:false, error}.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// nonJSONPreview is how much of an unparseable response body is surfaced in
// the error message for diagnostics.
const nonJSONPreview = 160

// validate checks decoded response payloads against their schema tags.
var validate = validator.New()

// Result is the uniform envelope every call resolves to. A call never fails
// with a transport error: failures are folded into OK=false with a message.
type Result struct {
	OK    bool
	Error string

	raw json.RawMessage
}

// Decode unmarshals the full response body into v and validates it against
// its schema tags. Call it only on OK results.
// PRE: r.OK is true
// POST: v is populated and schema-valid, or an error is returned
func (r Result) Decode(v any) error {
	if len(r.raw) == 0 {
		return fmt.Errorf("no response body to decode")
	}
	if err := json.Unmarshal(r.raw, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("response failed schema validation: %w", err)
	}
	return nil
}

// CallError is an application-level rejection or folded transport failure.
// Its message is shown to the owner verbatim next to the triggering control.
type CallError struct {
	Action  string
	Message string
}

// Error returns the backend-provided message.
func (e *CallError) Error() string {
	return e.Message
}

// Client talks to the single backend endpoint. No timeout, no retry and no
// request cancellation beyond context passthrough: each caller awaits exactly
// one response before proceeding.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a Client for the given endpoint URL.
func NewClient(endpoint string) *Client {
	return &Client{endpoint: endpoint, http: &http.Client{}}
}

// Call sends one action to the backend and always returns a Result.
// A transport failure yields {ok:false, error:"Network error: ..."}; an
// unparseable body yields {ok:false, error:"Server returned non-JSON: ..."}.
// An empty token omits the token field (unauthenticated actions).
// POST: Result.OK mirrors the backend's ok field on a parseable response
func (c *Client) Call(ctx context.Context, action string, payload map[string]any, token string) Result {
	body := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["action"] = action
	if token != "" {
		body["token"] = token
	}

	data, err := json.Marshal(body)
	if err != nil {
		return Result{OK: false, Error: "Network error: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return Result{OK: false, Error: "Network error: " + err.Error()}
	}
	// The backend expects a simple request; text/plain avoids a CORS-style
	// preflight on the hosted endpoint and is what it has always been sent.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("backend_call", "action", action, "outcome", "transport_error", "error", err)
		return Result{OK: false, Error: "Network error: " + err.Error()}
	}
	defer resp.Body.Close()

	txt, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("backend_call", "action", action, "outcome", "transport_error", "error", err)
		return Result{OK: false, Error: "Network error: " + err.Error()}
	}

	var envelope struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(txt, &envelope); err != nil {
		slog.Warn("backend_call", "action", action, "outcome", "non_json", "bytes", len(txt))
		return Result{OK: false, Error: "Server returned non-JSON: " + truncate(txt, nonJSONPreview) + "…"}
	}

	slog.Debug("backend_call", "action", action, "ok", envelope.OK)
	return Result{OK: envelope.OK, Error: envelope.Error, raw: txt}
}

func truncate(b []byte, n int) string {
	s := string(b)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
