package tenantcontext

import "github.com/gofiber/fiber/v2"

// TenantContext identifies which tenant the current request acts for.
type TenantContext struct {
	TenantID uint   `json:"tenant_id"`
	Plan     string `json:"plan"`
	Active   bool   `json:"active"`
}

// GetTenantContext retrieves the tenant context from fiber context.
// Returns an inactive context if none is set.
func GetTenantContext(c *fiber.Ctx) TenantContext {
	if ctx := c.Locals(ContextKey); ctx != nil {
		return ctx.(TenantContext)
	}
	return TenantContext{Active: false}
}

// HasActiveTenant checks if the current request has a selected tenant
func HasActiveTenant(c *fiber.Ctx) bool {
	return GetTenantContext(c).Active
}

// GetTenantID returns the current tenant's ID, or 0 if none is selected
func GetTenantID(c *fiber.Ctx) uint {
	return GetTenantContext(c).TenantID
}
