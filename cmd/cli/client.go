package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aryan0dhankhar/pgledger/internal/handler"
	"github.com/aryan0dhankhar/pgledger/internal/reliability/retry"
)

// apiError is a failed API response with its readable message
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// permanent reports client errors that a retry cannot fix
func permanent(err error) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.Status >= 400 && ae.Status < 500
}

// download is a fetched file with the name the server suggested
type download struct {
	Filename string
	Body     []byte
}

// client talks to the pgledger HTTP API
type client struct {
	base   string
	token  string
	http   *http.Client
	retry  *retry.Config
	logger *slog.Logger
}

func newClient(base, token string, logger *slog.Logger) *client {
	cfg := retry.DefaultConfig()
	cfg.Permanent = permanent
	return &client{
		base:   strings.TrimRight(base, "/"),
		token:  token,
		http:   &http.Client{Timeout: 30 * time.Second},
		retry:  cfg,
		logger: logger,
	}
}

func (c *client) request(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *client) do(req *http.Request) (*http.Response, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return resp, nil, &apiError{Status: resp.StatusCode, Message: handler.ErrorMessage(resp.StatusCode, data)}
	}
	return resp, data, nil
}

// get reads a JSON resource, retrying transport and server failures
func (c *client) get(ctx context.Context, path string, query url.Values, out any) error {
	data, err := retry.Do(ctx, c.retry, c.logger, "GET "+path, func(ctx context.Context) ([]byte, error) {
		req, err := c.request(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return nil, err
		}
		_, data, err := c.do(req)
		return data, err
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// send issues a mutating call once
func (c *client) send(ctx context.Context, method, path string, body, out any) error {
	req, err := c.request(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	_, data, err := c.do(req)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

// fetch downloads a file, keeping the server's Content-Disposition filename
func (c *client) fetch(ctx context.Context, path string, query url.Values) (download, error) {
	return retry.Do(ctx, c.retry, c.logger, "GET "+path, func(ctx context.Context) (download, error) {
		req, err := c.request(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return download{}, err
		}
		resp, data, err := c.do(req)
		if err != nil {
			return download{}, err
		}
		name := "export.csv"
		if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
			name = filepath.Base(params["filename"])
		}
		return download{Filename: name, Body: data}, nil
	})
}

func apiURL() string {
	if u := os.Getenv("PGLEDGER_API"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pgledger", "token")
}

func saveToken(token string) error {
	path := tokenFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

func loadToken() string {
	if t := os.Getenv("PGLEDGER_TOKEN"); t != "" {
		return t
	}
	data, _ := os.ReadFile(tokenFile())
	return strings.TrimSpace(string(data))
}
