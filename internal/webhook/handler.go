package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	queryChallenge   = "hub.challenge"
	queryVerifyToken = "hub.verify_token"

	maxBodyBytes = 1 << 20
)

type ReceivedResponse struct {
	Received   bool   `json:"received"`
	TenantID   string `json:"tenantId"`
	TenantSlug string `json:"tenantSlug,omitempty"`
}

type resolveFunc func(ctx context.Context, key string) (tenancy.Tenant, error)

// Handler handles webhook HTTP requests.
type Handler struct {
	service     *Service
	verifyToken string
}

func NewHandler(service *Service, verifyToken string) *Handler {
	return &Handler{service: service, verifyToken: verifyToken}
}

// RegisterRoutes mounts the public receivers. They carry no JWT.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	byID := func(c *gin.Context) (string, resolveFunc) { return c.Param("tenantId"), h.service.TenantByID }
	bySlug := func(c *gin.Context) (string, resolveFunc) { return c.Param("slug"), h.service.TenantBySlug }

	rg.GET("/:tenantId/:platform", h.verify(byID))
	rg.POST("/:tenantId/:platform", h.receive(byID, false))
	rg.GET("/slug/:slug/:platform", h.verify(bySlug))
	rg.POST("/slug/:slug/:platform", h.receive(bySlug, true))
}

// verify answers the platform subscription handshake. A known tenant always
// gets 200; the challenge is only echoed when the verify token matches.
func (h *Handler) verify(lookup func(*gin.Context) (string, resolveFunc)) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, resolve := lookup(c)
		if _, err := resolve(c.Request.Context(), key); httpkit.HandleError(c, err) {
			return
		}
		if challenge, ok := c.GetQuery(queryChallenge); ok && h.tokenAccepted(c) {
			c.String(http.StatusOK, challenge)
			return
		}
		httpkit.OK(c, gin.H{"status": "ok"})
	}
}

func (h *Handler) receive(lookup func(*gin.Context) (string, resolveFunc), withSlug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, resolve := lookup(c)
		tenant, err := resolve(c.Request.Context(), key)
		if httpkit.HandleError(c, err) {
			return
		}
		if challenge, ok := c.GetQuery(queryChallenge); ok {
			c.String(http.StatusOK, challenge)
			return
		}

		h.service.Receive(c.Request.Context(), tenant, c.Param("platform"), readBody(c))

		resp := ReceivedResponse{Received: true, TenantID: tenant.ID.String()}
		if withSlug {
			resp.TenantSlug = tenant.Slug
		}
		httpkit.OK(c, resp)
	}
}

// tokenAccepted checks hub.verify_token when a verify token is configured.
func (h *Handler) tokenAccepted(c *gin.Context) bool {
	if h.verifyToken == "" {
		return true
	}
	token, ok := c.GetQuery(queryVerifyToken)
	return !ok || token == h.verifyToken
}

// readBody decodes a JSON object body. Anything else yields an empty payload.
func readBody(c *gin.Context) map[string]interface{} {
	body := map[string]interface{}{}
	if c.Request.Body == nil {
		return body
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil || len(strings.TrimSpace(string(raw))) == 0 {
		return body
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return map[string]interface{}{}
	}
	return body
}
