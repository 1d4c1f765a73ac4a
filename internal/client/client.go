// Package client is a Go consumer of the fintrack API. Every request
// is built from the same route contract registry the server registers
// its handlers from, so the wire format cannot drift between the two.
//
// The client keeps a short-lived cache of the transaction list and
// invalidates it on every mutation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/contract"
	"fintrack/internal/core"
)

const listCacheKey = "transactions"

// APIError is a non-success response decoded from the error envelope.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("api error %d: %s (field %s)", e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	httpc   *http.Client
	lists   *cache.LRU[[]core.Transaction]
}

// New creates a client for the given base URL. The cookie jar holds
// the session cookie after Login.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
		lists: cache.NewLRU[[]core.Transaction](4, 30*time.Second),
	}, nil
}

func (c *Client) Register(ctx context.Context, username, password string) (core.User, error) {
	var user core.User
	err := c.do(ctx, contract.AuthRegister, nil, nil,
		contract.Credentials{Username: username, Password: password}, &user)
	return user, err
}

func (c *Client) Login(ctx context.Context, username, password string) (core.User, error) {
	var user core.User
	err := c.do(ctx, contract.AuthLogin, nil, nil,
		contract.Credentials{Username: username, Password: password}, &user)
	if err == nil {
		// A different user may now be logged in.
		c.lists.Delete(listCacheKey)
	}
	return user, err
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, contract.AuthLogout, nil, nil, nil, nil)
	if err == nil {
		c.lists.Delete(listCacheKey)
	}
	return err
}

// CurrentUser returns the logged-in user, or nil without error when
// no session is active.
func (c *Client) CurrentUser(ctx context.Context) (*core.User, error) {
	var user core.User
	err := c.do(ctx, contract.AuthUser, nil, nil, nil, &user)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ListTransactions fetches the transaction list. Unfiltered calls are
// served from the cache when fresh.
func (c *Client) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	if f.IsZero() {
		if list, found := c.lists.Get(listCacheKey); found {
			out := make([]core.Transaction, len(list))
			copy(out, list)
			return out, nil
		}
	}

	var list []core.Transaction
	if err := c.do(ctx, contract.TransactionList, nil, contract.EncodeFilter(f), nil, &list); err != nil {
		return nil, err
	}
	if f.IsZero() {
		c.lists.Set(listCacheKey, list)
	}
	return list, nil
}

func (c *Client) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var tx core.Transaction
	err := c.do(ctx, contract.TransactionGet, idParam(id), nil, nil, &tx)
	return tx, err
}

func (c *Client) CreateTransaction(ctx context.Context, payload contract.TransactionPayload) (core.Transaction, error) {
	var tx core.Transaction
	err := c.do(ctx, contract.TransactionCreate, nil, nil, payload, &tx)
	if err == nil {
		c.lists.Delete(listCacheKey)
	}
	return tx, err
}

func (c *Client) UpdateTransaction(ctx context.Context, id int64, patch contract.TransactionPatch) (core.Transaction, error) {
	var tx core.Transaction
	err := c.do(ctx, contract.TransactionUpdate, idParam(id), nil, patch, &tx)
	if err == nil {
		c.lists.Delete(listCacheKey)
	}
	return tx, err
}

func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	err := c.do(ctx, contract.TransactionDelete, idParam(id), nil, nil, nil)
	if err == nil {
		c.lists.Delete(listCacheKey)
	}
	return err
}

func (c *Client) DashboardSummary(ctx context.Context) (core.Summary, error) {
	var s core.Summary
	err := c.do(ctx, contract.DashboardSummary, nil, nil, nil, &s)
	return s, err
}

// do executes one contract route: builds the URL from the template,
// encodes the body, and decodes either the success payload or the
// error envelope.
func (c *Client) do(ctx context.Context, route contract.Route, params map[string]string, query url.Values, body, out any) error {
	u := c.baseURL + route.URL(params)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", route.Name, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, route.Method, u, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", route.Name, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", route.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != route.Success {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var envelope struct {
			Message string `json:"message"`
			Field   string `json:"field"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr == nil && envelope.Message != "" {
			apiErr.Message = envelope.Message
			apiErr.Field = envelope.Field
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", route.Name, err)
	}
	return nil
}

func idParam(id int64) map[string]string {
	return map[string]string{"id": strconv.FormatInt(id, 10)}
}
