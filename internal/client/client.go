// Package client is the rider-side SDK for the Savaari HTTP API. It wraps
// the REST surface with typed calls and layers local behavior on top:
// latest-request-wins fare estimation, optimistic ride tracking, and a
// realtime event stream with reconnect.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arvindrao/savaari/internal/fare"
	"github.com/arvindrao/savaari/internal/models"
	"github.com/arvindrao/savaari/internal/subscription"
	"github.com/arvindrao/savaari/pkg/utils"
)

// APIError is the error body the server sends for non-2xx responses.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// IsConflict reports whether the server rejected the call because of a
// state conflict, such as cancelling a ride that already started.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken installs the bearer token used on authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/register", req, &resp, ""); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, phone, password string) (*models.AuthResponse, error) {
	req := models.LoginRequest{Phone: phone, Password: password}
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/login", req, &resp, ""); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

func (c *Client) Me(ctx context.Context) (*models.UserResponse, error) {
	var resp models.UserResponse
	if err := c.do(ctx, http.MethodGet, "/v1/me", nil, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchFareEstimate asks the server for an itemized fare. Most callers
// should go through EstimateSession, which serializes concurrent requests
// and falls back to a local estimate when the network is down.
func (c *Client) FetchFareEstimate(ctx context.Context, req *models.FareEstimateRequest) (*fare.Estimate, error) {
	var resp fare.Estimate
	if err := c.do(ctx, http.MethodPost, "/v1/rides/fare-estimate", req, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ValidateSubscription(ctx context.Context) (*subscription.Validation, error) {
	var resp subscription.Validation
	if err := c.do(ctx, http.MethodPost, "/v1/subscriptions/validate", nil, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestRide books a ride. The idempotency key makes retries safe: a
// replay with the same key returns the original ride.
func (c *Client) RequestRide(ctx context.Context, req *models.CreateRideRequest, idempotencyKey string) (*models.RideResponse, error) {
	if idempotencyKey == "" {
		idempotencyKey = utils.GenerateID()
	}
	var resp models.RideResponse
	if err := c.do(ctx, http.MethodPost, "/v1/rides", req, &resp, idempotencyKey); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetRide(ctx context.Context, rideID string) (*models.RideResponse, error) {
	var resp models.RideResponse
	if err := c.do(ctx, http.MethodGet, "/v1/rides/"+rideID, nil, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CancelRide(ctx context.Context, rideID, reason string) (*models.RideResponse, error) {
	req := models.CancelRideRequest{
		Reason:      reason,
		CancelledBy: "rider",
	}
	var resp models.RideResponse
	if err := c.do(ctx, http.MethodPost, "/v1/rides/"+rideID+"/cancel", req, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, idempotencyKey string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Code = "unknown"
			apiErr.Message = resp.Status
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
