// Package inkclient is a small Go client for the Inkognito HTTP API.
package inkclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inkognito/internal/dto"
)

// APIError is returned for any non-2xx answer.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("inkognito: http %d", e.Status)
	}
	return fmt.Sprintf("inkognito: http %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	hc      *http.Client
	token   string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

func WithToken(token string) Option { return func(c *Client) { c.token = token } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Token() string { return c.token }

func (c *Client) Signup(ctx context.Context, username, email, password string) (string, error) {
	var out dto.APIResponse
	err := c.do(ctx, http.MethodPost, "/signup", dto.SignupRequest{Username: username, Email: email, Password: password}, &out)
	return messageString(out), err
}

func (c *Client) CheckUsername(ctx context.Context, username string) (string, error) {
	var out dto.APIResponse
	err := c.do(ctx, http.MethodGet, "/check-unique-username?username="+url.QueryEscape(username), nil, &out)
	return messageString(out), err
}

func (c *Client) Verify(ctx context.Context, username, code string) (string, error) {
	var out dto.APIResponse
	err := c.do(ctx, http.MethodPost, "/verify-code", dto.VerifyCodeRequest{Username: username, Code: code}, &out)
	return messageString(out), err
}

// Signin authenticates and keeps the returned token for later calls.
func (c *Client) Signin(ctx context.Context, identifier, password string) (*dto.SigninResponse, error) {
	var out dto.SigninResponse
	if err := c.do(ctx, http.MethodPost, "/sign-in", dto.SigninRequest{Identifier: identifier, Password: password}, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

func (c *Client) Session(ctx context.Context) (*dto.SessionResponse, error) {
	var out dto.SessionResponse
	if err := c.do(ctx, http.MethodGet, "/session", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendMessage(ctx context.Context, username, content string) (string, error) {
	var out dto.APIResponse
	err := c.do(ctx, http.MethodPost, "/send-message", dto.SendMessageRequest{Username: username, Content: content}, &out)
	return messageString(out), err
}

// Inbox returns the caller's messages oldest first. An empty inbox is an
// empty slice.
func (c *Client) Inbox(ctx context.Context) ([]dto.MessageView, error) {
	var raw struct {
		Success bool            `json:"success"`
		Message json.RawMessage `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, "/get-messages", nil, &raw); err != nil {
		return nil, err
	}
	msgs := []dto.MessageView{}
	if len(raw.Message) > 0 && raw.Message[0] == '[' {
		if err := json.Unmarshal(raw.Message, &msgs); err != nil {
			return nil, fmt.Errorf("decode inbox: %w", err)
		}
	}
	return msgs, nil
}

func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/delete-message/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Acceptance(ctx context.Context) (bool, error) {
	var out dto.APIResponse
	if err := c.do(ctx, http.MethodGet, "/accept-message", nil, &out); err != nil {
		return false, err
	}
	if !out.Success || out.IsAcceptingMessage == nil {
		return false, &APIError{Status: http.StatusOK, Message: messageString(out)}
	}
	return *out.IsAcceptingMessage, nil
}

func (c *Client) SetAcceptance(ctx context.Context, accepting bool) error {
	var out dto.APIResponse
	if err := c.do(ctx, http.MethodPost, "/accept-message", dto.AcceptMessagesRequest{AcceptMessages: &accepting}, &out); err != nil {
		return err
	}
	if !out.Success {
		return &APIError{Status: http.StatusOK, Message: messageString(out)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env dto.APIResponse
		if json.Unmarshal(data, &env) == nil {
			apiErr.Message = messageString(env)
			apiErr.Fields = env.Errors
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func messageString(r dto.APIResponse) string {
	if s, ok := r.Message.(string); ok {
		return s
	}
	return ""
}
