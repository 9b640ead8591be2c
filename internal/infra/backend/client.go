package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/yanqian/connect-gateway/internal/domain/auth"
	"github.com/yanqian/connect-gateway/internal/infra/config"
)

// Client talks to the external document API on behalf of the gateway.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewClient builds the API client. Retries are bounded and limited to GET so
// credential and upload requests are never replayed.
func NewClient(cfg config.BackendConfig, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if resp == nil || resp.Request == nil {
				return false
			}
			return resp.Request.Method == http.MethodGet && resp.StatusCode() >= http.StatusInternalServerError
		})
	return &Client{
		http:   httpClient,
		logger: logger.With("component", "backend.client"),
	}
}

type authResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// SignIn exchanges credentials at the backend sign-in endpoint.
func (c *Client) SignIn(ctx context.Context, email, password string) (auth.TokenGrant, error) {
	return c.credentialExchange(ctx, "/auth/signin", email, password)
}

// SignUp registers the account at the backend sign-up endpoint.
func (c *Client) SignUp(ctx context.Context, email, password string) (auth.TokenGrant, error) {
	return c.credentialExchange(ctx, "/auth/signup", email, password)
}

func (c *Client) credentialExchange(ctx context.Context, path, email, password string) (auth.TokenGrant, error) {
	var (
		ok   authResponse
		fail errorBody
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&ok).
		SetError(&fail).
		Post(path)
	if err != nil {
		return auth.TokenGrant{}, fmt.Errorf("backend request failed: %w", err)
	}
	if resp.IsError() {
		return auth.TokenGrant{}, &auth.BackendError{Status: resp.StatusCode(), Detail: fail.Detail}
	}
	return auth.TokenGrant{
		UserID:       ok.UserID,
		Email:        ok.Email,
		Name:         ok.Name,
		AccessToken:  ok.AccessToken,
		RefreshToken: ok.RefreshToken,
	}, nil
}

// Refresh exchanges the refresh token for a new pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	var (
		ok   authResponse
		fail errorBody
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"refresh_token": refreshToken}).
		SetResult(&ok).
		SetError(&fail).
		Post("/auth/refresh")
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("backend request failed: %w", err)
	}
	if resp.IsError() {
		return auth.TokenPair{}, &auth.BackendError{Status: resp.StatusCode(), Detail: fail.Detail}
	}
	return auth.TokenPair{AccessToken: ok.AccessToken, RefreshToken: ok.RefreshToken}, nil
}

// SignOut notifies the backend that the bearer signed out.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	var fail errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+accessToken).
		SetError(&fail).
		Post("/auth/signout")
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	if resp.IsError() {
		return &auth.BackendError{Status: resp.StatusCode(), Detail: fail.Detail}
	}
	return nil
}

var _ auth.Backend = (*Client)(nil)
