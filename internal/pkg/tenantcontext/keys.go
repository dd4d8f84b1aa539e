package tenantcontext

// Shared Locals/session keys used across handlers and middlewares
const (
	ContextKey     = "TENANT_CONTEXT"
	SessionKey     = "active_tenant_id"
	SessionPlanKey = "active_tenant_plan"
	HeaderKey      = "X-Tenant-ID"
)
