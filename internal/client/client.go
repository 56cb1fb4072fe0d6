// Package client is a small HTTP client for the patient-facing API.
package client

import (
	"alcyxob/therapy-app/internal/api"
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status   int
	Message  string `json:"error"`
	Redirect string `json:"redirect"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

// Login authenticates and keeps the token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*api.LoginResponse, error) {
	var resp api.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", api.LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

func (c *Client) Profile(ctx context.Context) (*api.UserResponse, error) {
	var resp api.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/pacientes/mi-perfil", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) History(ctx context.Context) ([]domain.SessionEntry, error) {
	var resp []domain.SessionEntry
	if err := c.do(ctx, http.MethodGet, "/api/v1/pacientes/mi-historial", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) AssignedSeries(ctx context.Context) (*service.EnrichedSeries, error) {
	var resp service.EnrichedSeries
	if err := c.do(ctx, http.MethodGet, "/api/v1/pacientes/mi-serie", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RecordSession(ctx context.Context, report *domain.SessionReport) (*service.SessionAck, error) {
	req := api.RecordSessionRequest{
		PainBefore:             report.PainBefore,
		PainAfter:              report.PainAfter,
		Comment:                report.Comment,
		SessionStartTime:       report.SessionStartTime,
		SessionEndTime:         report.SessionEndTime,
		EffectiveActiveMinutes: report.EffectiveActiveMinutes,
		PauseCount:             report.PauseCount,
		IdempotencyKey:         report.IdempotencyKey,
	}
	var resp service.SessionAck
	if err := c.do(ctx, http.MethodPost, "/api/v1/sesiones/registrar", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Errorf("close response body: %s", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(raw, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
