package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/session"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/tenantcontext"
)

// TenantContextMiddleware sets up the tenant context for every request.
// The active tenant comes from the session (set via the activate endpoint)
// and may be overridden per request with the X-Tenant-ID header.
func TenantContextMiddleware(c *fiber.Ctx) error {
	// Header override wins; it carries no plan hint.
	if raw := c.Get(tenantcontext.HeaderKey); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil && id > 0 {
			c.Locals(tenantcontext.ContextKey, tenantcontext.TenantContext{
				TenantID: uint(id),
				Active:   true,
			})
			return c.Next()
		}
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		c.Locals(tenantcontext.ContextKey, tenantcontext.TenantContext{Active: false})
		return c.Next()
	}

	// A session written by an older build may hold a different type; treat
	// anything but a uint as no selection.
	tenantID, ok := sess.Get(tenantcontext.SessionKey).(uint)
	if !ok || tenantID == 0 {
		c.Locals(tenantcontext.ContextKey, tenantcontext.TenantContext{Active: false})
		return c.Next()
	}

	planID, _ := sess.Get(tenantcontext.SessionPlanKey).(string)
	c.Locals(tenantcontext.ContextKey, tenantcontext.TenantContext{
		TenantID: tenantID,
		Plan:     planID,
		Active:   true,
	})

	return c.Next()
}
