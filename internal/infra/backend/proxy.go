package backend

import (
	"context"
	"fmt"
	"net/url"
)

// ProxyRequest is a pass-through call to the backend with the session bearer
// attached. The body is forwarded untouched.
type ProxyRequest struct {
	Method      string
	Path        string
	Query       url.Values
	ContentType string
	Body        []byte
	Bearer      string
}

// ProxyResponse carries the backend's answer back to the handler verbatim.
type ProxyResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Proxy forwards the request. A non-2xx backend status is not an error here;
// the handler decides how to render it.
func (c *Client) Proxy(ctx context.Context, req ProxyRequest) (ProxyResponse, error) {
	r := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", req.Bearer).
		SetDoNotParseResponse(false)
	if req.ContentType != "" {
		r.SetHeader("Content-Type", req.ContentType)
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return ProxyResponse{}, fmt.Errorf("backend proxy request failed: %w", err)
	}
	return ProxyResponse{
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
	}, nil
}
