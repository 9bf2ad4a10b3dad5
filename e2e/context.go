package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext drives a running gateway over HTTP and keeps the last response
// and named values between steps of one scenario.
type TestContext struct {
	baseURL string
	tokens  map[string]string
	client  *http.Client

	token      string
	lastStatus int
	lastBody   []byte
	vars       map[string]string
}

// NewTestContext targets baseURL. tokens maps a role name used in features
// ("writer", "reader") to a bearer token.
func NewTestContext(baseURL string, tokens map[string]string) *TestContext {
	return &TestContext{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client:  &http.Client{Timeout: 90 * time.Second},
		vars:    map[string]string{},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.token = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.vars = map[string]string{}
}

func (tc *TestContext) UseRole(role string) error {
	tok, ok := tc.tokens[role]
	if !ok || tok == "" {
		return fmt.Errorf("no token configured for role %q", role)
	}
	tc.token = tok
	return nil
}

// ClearToken makes following requests unauthenticated.
func (tc *TestContext) ClearToken() { tc.token = "" }

func (tc *TestContext) Remember(key, value string) { tc.vars[key] = value }

func (tc *TestContext) Recall(key string) string { return tc.vars[key] }

// Expand replaces {key} placeholders with remembered values.
func (tc *TestContext) Expand(s string) string {
	for k, v := range tc.vars {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.Do(http.MethodGet, path, nil, headers)
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.Do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) PATCH(path string, body any) error {
	return tc.Do(http.MethodPatch, path, body, nil)
}

func (tc *TestContext) DELETE(path string) error {
	return tc.Do(http.MethodDelete, path, nil, nil)
}

// Do sends one request and records the response. Non-2xx statuses are not
// errors; scenarios assert on them.
func (tc *TestContext) Do(method, path string, body any, headers map[string]string) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, tc.baseURL+tc.Expand(path), rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) GetLastResponseStatus() int { return tc.lastStatus }

func (tc *TestContext) GetLastResponseBody() []byte { return tc.lastBody }

// GetResponseField returns a dotted path ("transaction.code") from the last
// JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var v any
	if err := json.Unmarshal(tc.lastBody, &v); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	for _, part := range strings.Split(field, ".") {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", field, part)
		}
		if v, ok = m[part]; !ok {
			return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
		}
	}
	return v, nil
}
