package typedb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TransactionKind selects the TypeDB transaction flavour.
type TransactionKind string

const (
	TxSchema TransactionKind = "schema"
	TxRead   TransactionKind = "read"
	TxWrite  TransactionKind = "write"
)

// apiError is a non-2xx reply from the TypeDB HTTP endpoint.
type apiError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("typedb: %s (%s, http %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("typedb: %s (http %d)", e.Message, e.Status)
}

// IsAuthError reports whether err is a credential rejection rather than a
// transport or server failure. The bootstrap branch in Session.Connect keys
// off this: auth rejections switch credentials, everything else is retried.
func IsAuthError(err error) bool {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.Status == http.StatusUnauthorized || ae.Status == http.StatusForbidden
	}
	return false
}

// Client talks to the TypeDB server over its HTTP API. There is no official
// Go driver; the HTTP endpoint is the supported wire surface.
type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
}

// NewClient builds a client for a `host:port` server address.
func NewClient(addr string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SignIn authenticates and stores the bearer token for subsequent calls.
func (c *Client) SignIn(ctx context.Context, username, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	payload := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/v1/signin", payload, &out); err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

// UpdatePassword changes the password of the given user.
func (c *Client) UpdatePassword(ctx context.Context, username, password string) error {
	payload := map[string]string{"password": password}
	path := fmt.Sprintf("/v1/users/%s/password", username)
	return c.do(ctx, http.MethodPut, path, payload, nil)
}

// DatabaseExists checks the server's database list for the given name.
func (c *Client) DatabaseExists(ctx context.Context, name string) (bool, error) {
	var out struct {
		Databases []struct {
			Name string `json:"name"`
		} `json:"databases"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/databases", nil, &out); err != nil {
		return false, err
	}
	for _, db := range out.Databases {
		if db.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// CreateDatabase creates a database.
func (c *Client) CreateDatabase(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/v1/databases/"+name, nil, nil)
}

// DeleteDatabase removes a database and everything in it.
func (c *Client) DeleteDatabase(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/v1/databases/"+name, nil, nil)
}

// OpenTransaction opens a transaction of the given kind and returns its id.
func (c *Client) OpenTransaction(ctx context.Context, database string, kind TransactionKind) (string, error) {
	var out struct {
		TransactionID string `json:"transactionId"`
	}
	payload := map[string]string{
		"databaseName":    database,
		"transactionType": string(kind),
	}
	if err := c.do(ctx, http.MethodPost, "/v1/transactions/open", payload, &out); err != nil {
		return "", err
	}
	return out.TransactionID, nil
}

// Query runs a query inside an open transaction and collects every answer.
func (c *Client) Query(ctx context.Context, txID, query string) ([]Document, error) {
	var out struct {
		Answers []Document `json:"answers"`
	}
	payload := map[string]string{"query": query}
	path := fmt.Sprintf("/v1/transactions/%s/query", txID)
	if err := c.do(ctx, http.MethodPost, path, payload, &out); err != nil {
		return nil, err
	}
	return out.Answers, nil
}

// Commit commits an open transaction.
func (c *Client) Commit(ctx context.Context, txID string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/transactions/%s/commit", txID), nil, nil)
}

// CloseTransaction releases a transaction without committing.
func (c *Client) CloseTransaction(ctx context.Context, txID string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/transactions/%s/close", txID), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request for %s: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ae := &apiError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var decoded apiError
		if json.Unmarshal(raw, &decoded) == nil && decoded.Message != "" {
			ae.Code = decoded.Code
			ae.Message = decoded.Message
		}
		return ae
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response from %s: %w", path, err)
		}
	}
	return nil
}
