package apiv1

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/app/models"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/app/repository"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/entitlements"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/eventlog"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/plan"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/session"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/subscription"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/tenantcontext"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/usage"
)

// APIServer implements the entitlement API surface
type APIServer struct {
	svc      *subscription.Service
	reporter *usage.Reporter
	validate *validator.Validate
}

// NewAPIServer creates a new API server instance
func NewAPIServer(svc *subscription.Service, reporter *usage.Reporter) *APIServer {
	return &APIServer{
		svc:      svc,
		reporter: reporter,
		validate: validator.New(),
	}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetPlans returns the catalog, lowest tier first.
func (s *APIServer) GetPlans(c *fiber.Ctx) error {
	return c.JSON(s.svc.Catalog().AllOrderedByRank())
}

// PostTenant registers a tenant and materializes its initial plan.
func (s *APIServer) PostTenant(c *fiber.Ctx) error {
	var req CreateTenantRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "request body must be valid JSON")
	}
	if err := s.validate.Struct(&req); err != nil {
		return badRequest(c, "validation_failed", err.Error())
	}

	planID := plan.Free
	if req.Plan != "" {
		var err error
		if planID, err = plan.ParseID(req.Plan); err != nil {
			return notFound(c, "plan_not_found", "unknown plan: "+req.Plan)
		}
	}

	tenant := &models.Tenant{Name: req.Name}
	if req.Timezone != "" {
		tenant.Timezone = req.Timezone
	}
	if req.Currency != "" {
		tenant.Currency = req.Currency
	}

	sub, err := s.svc.Create(c.Context(), tenant, planID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(CreateTenantResponse{Tenant: tenant, Subscription: sub})
}

// GetTenants returns a page of tenants plus the total count.
func (s *APIServer) GetTenants(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if offset < 0 || limit < 1 || limit > 200 {
		return badRequest(c, "invalid_paging", "offset must be >= 0 and limit between 1 and 200")
	}

	tenants, total, err := s.svc.List(c.Context(), offset, limit)
	if err != nil {
		return internalError(c, err)
	}
	if tenants == nil {
		tenants = []models.Tenant{}
	}
	return c.JSON(TenantListResponse{Tenants: tenants, Total: total})
}

// GetSubscription returns a tenant's subscription with upgrade availability.
func (s *APIServer) GetSubscription(c *fiber.Ctx) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return badRequest(c, "invalid_tenant_id", "tenant id must be a positive integer")
	}

	sub, err := s.svc.Fetch(c.Context(), tenantID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(SubscriptionResponse{
		TenantSubscription: sub,
		CanUpgrade:         entitlements.CanUpgrade(s.svc.Catalog(), sub),
	})
}

// GetFeature answers whether a tenant may use a named capability.
func (s *APIServer) GetFeature(c *fiber.Ctx) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return badRequest(c, "invalid_tenant_id", "tenant id must be a positive integer")
	}
	feature, err := plan.ParseFeature(c.Params("feature"))
	if err != nil {
		return badRequest(c, "unknown_feature", "unknown feature: "+c.Params("feature"))
	}

	sub, err := s.svc.Fetch(c.Context(), tenantID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(FeatureCheckResponse{
		Feature: string(feature),
		Enabled: entitlements.CheckFeature(sub, feature),
	})
}

// GetLimit answers whether one more unit of a metric may be consumed. The
// current count comes from the reported usage snapshot unless the caller
// overrides it with ?current=.
func (s *APIServer) GetLimit(c *fiber.Ctx) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return badRequest(c, "invalid_tenant_id", "tenant id must be a positive integer")
	}
	metric, err := plan.ParseMetric(c.Params("metric"))
	if err != nil {
		return badRequest(c, "unknown_metric", "unknown metric: "+c.Params("metric"))
	}

	sub, err := s.svc.Fetch(c.Context(), tenantID)
	if err != nil {
		return mapServiceError(c, err)
	}

	var current int64
	if raw := c.Query("current"); raw != "" {
		current, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || current < 0 {
			return badRequest(c, "invalid_current", "current must be a non-negative integer")
		}
	} else {
		current, err = s.reporter.Get(c.Context(), tenantID, metric)
		if err != nil {
			return internalError(c, err)
		}
	}

	return c.JSON(LimitCheckResponse{
		Metric:     string(metric),
		LimitCheck: entitlements.EvaluateLimit(sub, metric, current),
	})
}

// PostUpgrade runs the upgrade workflow for a tenant.
func (s *APIServer) PostUpgrade(c *fiber.Ctx) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return badRequest(c, "invalid_tenant_id", "tenant id must be a positive integer")
	}
	var req UpgradeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "request body must be valid JSON")
	}
	if err := s.validate.Struct(&req); err != nil {
		return badRequest(c, "validation_failed", err.Error())
	}
	target, err := plan.ParseID(req.TargetPlan)
	if err != nil {
		return notFound(c, "plan_not_found", "unknown plan: "+req.TargetPlan)
	}

	sub, err := s.svc.Upgrade(c.Context(), tenantID, target)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(SubscriptionResponse{
		TenantSubscription: sub,
		CanUpgrade:         entitlements.CanUpgrade(s.svc.Catalog(), sub),
	})
}

// PostFeatureToggle flips a materialized feature flag for a tenant.
func (s *APIServer) PostFeatureToggle(c *fiber.Ctx) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return badRequest(c, "invalid_tenant_id", "tenant id must be a positive integer")
	}
	feature, err := plan.ParseFeature(c.Params("feature"))
	if err != nil {
		return badRequest(c, "unknown_feature", "unknown feature: "+c.Params("feature"))
	}
	var req ToggleFeatureRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "request body must be valid JSON")
	}
	if err := s.validate.Struct(&req); err != nil {
		return badRequest(c, "validation_failed", err.Error())
	}

	sub, err := s.svc.ToggleFeature(c.Context(), tenantID, feature, *req.Enabled)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(sub)
}

// GetEvents returns the retained event feed for a tenant, most recent first.
func (s *APIServer) GetEvents(c *fiber.Ctx) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return badRequest(c, "invalid_tenant_id", "tenant id must be a positive integer")
	}
	// Events exist only for known tenants.
	if _, err := s.svc.Fetch(c.Context(), tenantID); err != nil {
		return mapServiceError(c, err)
	}
	events := s.svc.Events(tenantID)
	if events == nil {
		events = []eventlog.TenantEvent{}
	}
	return c.JSON(events)
}

// PostUsage stores a point-in-time consumption snapshot for a tenant.
func (s *APIServer) PostUsage(c *fiber.Ctx) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return badRequest(c, "invalid_tenant_id", "tenant id must be a positive integer")
	}
	var req ReportUsageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "request body must be valid JSON")
	}
	if err := s.validate.Struct(&req); err != nil {
		return badRequest(c, "validation_failed", err.Error())
	}

	counts := make(map[plan.Metric]int64, len(req.Counts))
	for raw, n := range req.Counts {
		metric, err := plan.ParseMetric(raw)
		if err != nil {
			return badRequest(c, "unknown_metric", "unknown metric: "+raw)
		}
		counts[metric] = n
	}

	if _, err := s.svc.Fetch(c.Context(), tenantID); err != nil {
		return mapServiceError(c, err)
	}
	if err := s.reporter.Report(c.Context(), tenantID, counts); err != nil {
		return internalError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PostActivate selects the tenant the calling session acts for. Pure
// selection: nothing on the subscription changes.
func (s *APIServer) PostActivate(c *fiber.Ctx) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return badRequest(c, "invalid_tenant_id", "tenant id must be a positive integer")
	}

	sub, err := s.svc.Fetch(c.Context(), tenantID)
	if err != nil {
		return mapServiceError(c, err)
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return internalError(c, err)
	}
	sess.Set(tenantcontext.SessionKey, tenantID)
	sess.Set(tenantcontext.SessionPlanKey, sub.PlanID)
	if err := sess.Save(); err != nil {
		return internalError(c, err)
	}

	return c.JSON(tenantcontext.TenantContext{
		TenantID: tenantID,
		Plan:     sub.PlanID,
		Active:   true,
	})
}

// GetActiveSubscription resolves the subscription of the tenant the request
// acts for: the session's active tenant, or the X-Tenant-ID header override.
func (s *APIServer) GetActiveSubscription(c *fiber.Ctx) error {
	if !tenantcontext.HasActiveTenant(c) {
		return badRequest(c, "no_active_tenant", "activate a tenant or pass "+tenantcontext.HeaderKey)
	}

	sub, err := s.svc.Fetch(c.Context(), tenantcontext.GetTenantID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(SubscriptionResponse{
		TenantSubscription: sub,
		CanUpgrade:         entitlements.CanUpgrade(s.svc.Catalog(), sub),
	})
}

func tenantParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid tenant id")
	}
	return uint(id), nil
}

func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, subscription.ErrTenantNotFound):
		return notFound(c, "tenant_not_found", "tenant does not exist")
	case errors.Is(err, plan.ErrPlanNotFound):
		return notFound(c, "plan_not_found", "plan does not exist")
	case errors.Is(err, subscription.ErrInvalidDirection):
		return conflict(c, "invalid_direction", err.Error())
	case errors.Is(err, subscription.ErrFeatureNotInPlan):
		return conflict(c, "feature_not_in_plan", err.Error())
	case errors.Is(err, repository.ErrVersionConflict):
		return conflict(c, "conflict", "subscription was modified concurrently, retry")
	default:
		return internalError(c, err)
	}
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": code, "message": message})
}

func notFound(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": code, "message": message})
}

func conflict(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": code, "message": message})
}

func internalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": err.Error()})
}
