package scheduler

import (
	"net/http"

	"engagement_backend/internal/access"
	apphttp "engagement_backend/internal/http"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"
	"engagement_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type SweepResponse struct {
	TenantID string `json:"tenantId"`
	Job      string `json:"job"`
	Queued   bool   `json:"queued"`
}

// TriggerModule exposes on-demand sweeps. A nil enqueuer means no queue is
// configured and every trigger answers 503.
type TriggerModule struct {
	queue SweepEnqueuer
}

func NewTriggerModule(queue SweepEnqueuer) *TriggerModule {
	return &TriggerModule{queue: queue}
}

func (m *TriggerModule) Name() string {
	return "sweeps"
}

func (m *TriggerModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.registerRoutes(ctx.Tenant)
}

func (m *TriggerModule) registerRoutes(rg *gin.RouterGroup) {
	rg.POST("/tenants/:tenantId/sweeps/:job", access.RequirePermission(tenancy.ResourceSettings, tenancy.ActionUpdate), m.trigger)
}

func (m *TriggerModule) trigger(c *gin.Context) {
	tc, _, ok := access.Caller(c)
	if !ok {
		return
	}

	job, ok := ParseJob(c.Param("job"))
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, "unknown job", nil)
		return
	}
	if m.queue == nil {
		httpkit.HandleError(c, apperr.Unavailable("sweep queue is not configured"))
		return
	}
	if !Eligible(job, tc.Tenant) {
		httpkit.HandleError(c, apperr.Validation("job is disabled for this tenant"))
		return
	}

	queued, err := m.queue.EnqueueSweep(c.Request.Context(), SweepTenantPayload{
		TenantID: tc.Tenant.ID.String(),
		Job:      string(job),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, SweepResponse{TenantID: tc.Tenant.ID.String(), Job: string(job), Queued: queued})
}

var _ apphttp.Module = (*TriggerModule)(nil)
