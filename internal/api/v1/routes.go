package apiv1

import "github.com/gofiber/fiber/v2"

// RegisterHandlers attaches the v1 entitlement routes to a router group.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)
	router.Get("/plans", s.GetPlans)

	router.Get("/tenant/subscription", s.GetActiveSubscription)

	router.Get("/tenants", s.GetTenants)
	router.Post("/tenants", s.PostTenant)
	router.Get("/tenants/:id/subscription", s.GetSubscription)
	router.Get("/tenants/:id/features/:feature", s.GetFeature)
	router.Post("/tenants/:id/features/:feature", s.PostFeatureToggle)
	router.Get("/tenants/:id/limits/:metric", s.GetLimit)
	router.Post("/tenants/:id/upgrade", s.PostUpgrade)
	router.Get("/tenants/:id/events", s.GetEvents)
	router.Post("/tenants/:id/usage", s.PostUsage)
	router.Post("/tenants/:id/activate", s.PostActivate)
}
