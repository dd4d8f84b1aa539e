package apiv1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/app/models"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/app/repository"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/eventlog"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/middleware"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/plan"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/subscription"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/tenantcontext"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/usage"
)

type memTenantRepo struct {
	tenants map[uint]*models.Tenant
	subs    *memSubscriptionRepo
	nextID  uint
}

func (r *memTenantRepo) CreateWithSubscription(tenant *models.Tenant, sub *models.TenantSubscription) error {
	tenant.ID = r.nextID
	r.nextID++
	clone := *tenant
	r.tenants[tenant.ID] = &clone
	sub.TenantID = tenant.ID
	r.subs.insert(sub)
	return nil
}

func (r *memTenantRepo) GetByID(id uint) (*models.Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *memTenantRepo) Update(tenant *models.Tenant) error {
	clone := *tenant
	r.tenants[tenant.ID] = &clone
	return nil
}

func (r *memTenantRepo) List(offset, limit int) ([]models.Tenant, error) {
	ids := make([]uint, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var page []models.Tenant
	for i := offset; i < len(ids) && len(page) < limit; i++ {
		page = append(page, *r.tenants[ids[i]])
	}
	return page, nil
}

func (r *memTenantRepo) Count() (int64, error) { return int64(len(r.tenants)), nil }

type memSubscriptionRepo struct {
	subs   map[uint]*models.TenantSubscription
	nextID uint
}

func (r *memSubscriptionRepo) insert(sub *models.TenantSubscription) {
	sub.ID = r.nextID
	r.nextID++
	r.subs[sub.TenantID] = sub.Clone()
}

func (r *memSubscriptionRepo) GetByTenantID(tenantID uint) (*models.TenantSubscription, error) {
	sub, ok := r.subs[tenantID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return sub.Clone(), nil
}

func (r *memSubscriptionRepo) UpdateEntitlements(sub *models.TenantSubscription) error {
	stored, ok := r.subs[sub.TenantID]
	if !ok || stored.Version != sub.Version {
		return repository.ErrVersionConflict
	}
	sub.Version++
	r.subs[sub.TenantID] = sub.Clone()
	return nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	// The session store behind the tenant-context middleware reads these on
	// first use.
	t.Setenv("CACHE_HOST", mr.Host())
	t.Setenv("CACHE_PORT", mr.Port())

	subRepo := &memSubscriptionRepo{subs: map[uint]*models.TenantSubscription{}, nextID: 1}
	repos := &repository.Repositories{
		Tenant:       &memTenantRepo{tenants: map[uint]*models.Tenant{}, subs: subRepo, nextID: 1},
		Subscription: subRepo,
	}
	svc := subscription.NewService(repos, plan.Default(), eventlog.New(), client)
	server := NewAPIServer(svc, usage.NewReporter(client))

	app := fiber.New()
	app.Use(middleware.TenantContextMiddleware)
	RegisterHandlers(app.Group("/api/v1"), server)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, payload
}

func createTestTenant(t *testing.T, app *fiber.App, planID string) uint {
	t.Helper()
	resp, payload := doJSON(t, app, fiber.MethodPost, "/api/v1/tenants", fiber.Map{
		"name": "Acme GmbH",
		"plan": planID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(payload))

	var created CreateTenantResponse
	require.NoError(t, json.Unmarshal(payload, &created))
	return created.Tenant.ID
}

func TestGetPing(t *testing.T) {
	app := newTestApp(t)

	resp, payload := doJSON(t, app, fiber.MethodGet, "/api/v1/ping", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ping":"pong"}`, string(payload))
}

func TestGetPlans(t *testing.T) {
	app := newTestApp(t)

	resp, payload := doJSON(t, app, fiber.MethodGet, "/api/v1/plans", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var plans []plan.Plan
	require.NoError(t, json.Unmarshal(payload, &plans))
	require.Len(t, plans, 4)
	assert.Equal(t, plan.Free, plans[0].ID)
	assert.Equal(t, plan.Enterprise, plans[3].ID)
}

func TestTenantListEndpoint(t *testing.T) {
	app := newTestApp(t)
	createTestTenant(t, app, "free")
	createTestTenant(t, app, "starter")

	resp, payload := doJSON(t, app, fiber.MethodGet, "/api/v1/tenants?limit=1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list TenantListResponse
	require.NoError(t, json.Unmarshal(payload, &list))
	assert.Len(t, list.Tenants, 1)
	assert.Equal(t, int64(2), list.Total)

	resp, _ = doJSON(t, app, fiber.MethodGet, "/api/v1/tenants?limit=0", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubscriptionEndpoint(t *testing.T) {
	app := newTestApp(t)
	id := createTestTenant(t, app, "starter")

	resp, payload := doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/v1/tenants/%d/subscription", id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var sub SubscriptionResponse
	require.NoError(t, json.Unmarshal(payload, &sub))
	assert.Equal(t, "starter", sub.PlanID)
	assert.True(t, sub.CanUpgrade)

	resp, _ = doJSON(t, app, fiber.MethodGet, "/api/v1/tenants/999/subscription", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodGet, "/api/v1/tenants/abc/subscription", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestActiveTenantEndpoint(t *testing.T) {
	app := newTestApp(t)
	id := createTestTenant(t, app, "starter")

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/tenant/subscription", nil)
	req.Header.Set(tenantcontext.HeaderKey, fmt.Sprint(id))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var sub SubscriptionResponse
	require.NoError(t, json.Unmarshal(payload, &sub))
	assert.Equal(t, "starter", sub.PlanID)

	// No selection at all: refused, not guessed.
	resp, _ = doJSON(t, app, fiber.MethodGet, "/api/v1/tenant/subscription", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFeatureEndpoint(t *testing.T) {
	app := newTestApp(t)
	id := createTestTenant(t, app, "starter")

	resp, payload := doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/v1/tenants/%d/features/pos", id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"feature":"pos","enabled":true}`, string(payload))

	resp, payload = doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/v1/tenants/%d/features/multi_location", id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"feature":"multi_location","enabled":false}`, string(payload))

	resp, _ = doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/v1/tenants/%d/features/teleportation", id), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLimitEndpoint(t *testing.T) {
	app := newTestApp(t)
	id := createTestTenant(t, app, "professional")

	resp, payload := doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/v1/tenants/%d/limits/users?current=24", id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var check LimitCheckResponse
	require.NoError(t, json.Unmarshal(payload, &check))
	assert.True(t, check.CanPerform)
	assert.Equal(t, int64(24), check.Current)
	assert.Equal(t, int64(1), check.Remaining)
	assert.InDelta(t, 96.0, check.Percentage, 0.001)
	assert.Equal(t, "critical", string(check.Level))

	resp, payload = doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/v1/tenants/%d/limits/users?current=25", id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(payload, &check))
	assert.False(t, check.CanPerform)
	assert.Equal(t, int64(0), check.Remaining)

	resp, _ = doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/v1/tenants/%d/limits/teleports", id), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUsageReportFeedsLimitCheck(t *testing.T) {
	app := newTestApp(t)
	id := createTestTenant(t, app, "professional")

	resp, _ := doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/tenants/%d/usage", id), fiber.Map{
		"counts": fiber.Map{"users": 8},
	})
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, payload := doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/v1/tenants/%d/limits/users", id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var check LimitCheckResponse
	require.NoError(t, json.Unmarshal(payload, &check))
	assert.Equal(t, int64(8), check.Current)
	assert.Equal(t, int64(17), check.Remaining)
	assert.Equal(t, "low", string(check.Level))

	resp, _ = doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/tenants/%d/usage", id), fiber.Map{
		"counts": fiber.Map{"teleports": 1},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUpgradeEndpoint(t *testing.T) {
	app := newTestApp(t)
	id := createTestTenant(t, app, "starter")

	resp, payload := doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/tenants/%d/upgrade", id), fiber.Map{
		"target_plan": "professional",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(payload))

	var sub SubscriptionResponse
	require.NoError(t, json.Unmarshal(payload, &sub))
	assert.Equal(t, "professional", sub.PlanID)
	assert.Equal(t, models.TenantStatusActive, sub.Status)
	assert.True(t, sub.Features.Has(plan.FeatureMultiLocation))

	// Downgrades are refused.
	resp, _ = doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/tenants/%d/upgrade", id), fiber.Map{
		"target_plan": "free",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/tenants/%d/upgrade", id), fiber.Map{
		"target_plan": "platinum",
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/tenants/%d/upgrade", id), fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestEventsEndpoint(t *testing.T) {
	app := newTestApp(t)
	id := createTestTenant(t, app, "starter")

	resp, payload := doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/tenants/%d/upgrade", id), fiber.Map{
		"target_plan": "professional",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(payload))

	resp, payload = doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/v1/tenants/%d/events", id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var events []eventlog.TenantEvent
	require.NoError(t, json.Unmarshal(payload, &events))
	require.Len(t, events, 2)
	assert.Equal(t, eventlog.TypePlanUpgraded, events[0].Type)
	assert.Equal(t, "starter", events[0].Data["previous_plan"])
	assert.Equal(t, "professional", events[0].Data["new_plan"])
	assert.Equal(t, eventlog.TypeTenantCreated, events[1].Type)
}

func TestFeatureToggleEndpoint(t *testing.T) {
	app := newTestApp(t)
	id := createTestTenant(t, app, "professional")

	resp, payload := doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/tenants/%d/features/pos", id), fiber.Map{
		"enabled": false,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(payload))

	var sub models.TenantSubscription
	require.NoError(t, json.Unmarshal(payload, &sub))
	assert.False(t, sub.Features.Has(plan.FeaturePOS))

	// Enabling above the assigned tier conflicts.
	resp, _ = doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/tenants/%d/features/custom_branding", id), fiber.Map{
		"enabled": true,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}
