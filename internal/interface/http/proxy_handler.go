package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/connect-gateway/internal/infra/backend"
)

const proxyBodyLimit = 64 << 20 // uploads pass through whole or not at all

// ListCollections proxies the collection listing.
func (h *Handler) ListCollections(c *gin.Context) {
	h.forward(c, http.MethodGet, "/collections")
}

// CreateCollection proxies collection creation.
func (h *Handler) CreateCollection(c *gin.Context) {
	h.forward(c, http.MethodPost, "/collections")
}

// GetCollection proxies a single collection fetch.
func (h *Handler) GetCollection(c *gin.Context) {
	h.forward(c, http.MethodGet, collectionPath(c))
}

// UpdateCollection proxies collection metadata updates.
func (h *Handler) UpdateCollection(c *gin.Context) {
	h.forward(c, http.MethodPatch, collectionPath(c))
}

// DeleteCollection proxies collection deletion.
func (h *Handler) DeleteCollection(c *gin.Context) {
	h.forward(c, http.MethodDelete, collectionPath(c))
}

// ListDocuments proxies the document listing of a collection.
func (h *Handler) ListDocuments(c *gin.Context) {
	h.forward(c, http.MethodGet, collectionPath(c)+"/documents")
}

// UploadDocuments forwards the multipart upload untouched; chunking and
// embedding happen backend-side.
func (h *Handler) UploadDocuments(c *gin.Context) {
	h.forward(c, http.MethodPost, collectionPath(c)+"/documents")
}

// DeleteDocument proxies document deletion.
func (h *Handler) DeleteDocument(c *gin.Context) {
	h.forward(c, http.MethodDelete, fmt.Sprintf("%s/documents/%s", collectionPath(c), c.Param("documentId")))
}

// SearchDocuments proxies semantic/keyword search over a collection's chunks.
func (h *Handler) SearchDocuments(c *gin.Context) {
	h.forward(c, http.MethodPost, collectionPath(c)+"/documents/search")
}

func collectionPath(c *gin.Context) string {
	return "/collections/" + c.Param("collectionId")
}

// forward relays the request to the backend with the session bearer attached
// and wraps the answer in the success envelope the UI expects.
func (h *Handler) forward(c *gin.Context, method, path string) {
	s, ok := getSession(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "authentication required", nil))
		return
	}

	var body []byte
	if c.Request.Body != nil {
		data, err := io.ReadAll(io.LimitReader(c.Request.Body, proxyBodyLimit+1))
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read request body", err))
			return
		}
		if len(data) > proxyBodyLimit {
			abortWithError(c, NewHTTPError(http.StatusRequestEntityTooLarge, "payload_too_large", "request body exceeds the upload limit", nil))
			return
		}
		body = data
	}

	resp, err := h.backend.Proxy(c.Request.Context(), backend.ProxyRequest{
		Method:      method,
		Path:        path,
		Query:       c.Request.URL.Query(),
		ContentType: c.GetHeader("Content-Type"),
		Body:        body,
		Bearer:      s.Bearer(),
	})
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadGateway, "backend_unavailable", "backend request failed", err))
		return
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.JSON(resp.StatusCode, gin.H{"success": false, "message": backendMessage(resp.Body)})
		return
	}
	if len(resp.Body) == 0 || !json.Valid(resp.Body) {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": json.RawMessage(resp.Body)})
}

func backendMessage(body []byte) string {
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return "backend request failed"
}
