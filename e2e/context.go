package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestContext carries one scenario's state against a running ledger server.
type TestContext struct {
	BaseURL    string
	SigningKey string
	Issuer     string
	Admin      string
	WriteLimit int
	HTTPClient *http.Client

	runID       string
	caller      string
	lastStatus  int
	lastBody    []byte
	lastHeaders http.Header
	records     map[string]uint64
}

// Reset starts a new scenario. runID keeps callers unique across scenarios
// so aggregates and rate limit buckets never leak between them.
func (tc *TestContext) Reset(runID string) {
	tc.runID = runID
	tc.caller = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastHeaders = nil
	tc.records = make(map[string]uint64)
}

// Identity maps a scenario-local name to the identity sent to the server.
// The configured admin is used verbatim.
func (tc *TestContext) Identity(name string) string {
	if name == "admin" {
		return tc.Admin
	}
	return name + "-" + tc.runID
}

func (tc *TestContext) ActAs(name string) {
	tc.caller = tc.Identity(name)
}

func (tc *TestContext) Anonymous() {
	tc.caller = ""
}

func (tc *TestContext) Remember(name string, id uint64) {
	tc.records[name] = id
}

func (tc *TestContext) Recall(name string) (uint64, error) {
	id, ok := tc.records[name]
	if !ok {
		return 0, fmt.Errorf("no record named %q in this scenario", name)
	}
	return id, nil
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body)
}

func (tc *TestContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tc.caller != "" {
		token, err := tc.token(tc.caller)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastHeaders = resp.Header
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) token(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    tc.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		ID:        strconv.FormatInt(now.UnixNano(), 36),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tc.SigningKey))
}

func (tc *TestContext) GetLastResponseStatus() int {
	return tc.lastStatus
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.lastBody
}

func (tc *TestContext) GetLastResponseHeader(name string) string {
	return tc.lastHeaders.Get(name)
}

// GetResponseField decodes a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var body map[string]any
	if err := json.Unmarshal(tc.lastBody, &body); err != nil {
		return nil, fmt.Errorf("decode response %q: %w", tc.lastBody, err)
	}
	v, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("field %q missing from %s", field, tc.lastBody)
	}
	return v, nil
}

func (tc *TestContext) GetWriteLimit() int {
	return tc.WriteLimit
}
