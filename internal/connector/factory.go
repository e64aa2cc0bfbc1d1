package connector

import (
	"fmt"
	"net/http"

	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"
	"engagement_backend/platform/config"
)

// Factory builds connectors from a tenant's stored credentials.
type Factory struct {
	baseURL string
	http    *http.Client
}

// NewFactory creates a Factory. All connectors share one HTTP client whose
// timeout bounds every platform call.
func NewFactory(cfg config.ConnectorConfig) *Factory {
	return &Factory{
		baseURL: cfg.GetGraphAPIBaseURL(),
		http:    &http.Client{Timeout: cfg.GetExternalCallTimeout()},
	}
}

// For returns the connector for platform. The platform must be enabled and
// configured on the tenant.
func (f *Factory) For(tenant tenancy.Tenant, platform tenancy.Platform) (Connector, error) {
	var dialect graphDialect
	switch platform {
	case tenancy.PlatformInstagram:
		dialect = instagramDialect
	case tenancy.PlatformFacebook:
		dialect = facebookDialect
	default:
		return nil, apperr.Validation(fmt.Sprintf("unsupported platform %q", platform))
	}

	if !tenant.PlatformEnabled(platform) {
		return nil, apperr.Validation(fmt.Sprintf("%s is not enabled for this tenant", platform))
	}
	cfg, _ := tenant.PlatformConfigFor(platform)
	return newGraphClient(f.baseURL, cfg.AccessToken, dialect, f.http), nil
}
