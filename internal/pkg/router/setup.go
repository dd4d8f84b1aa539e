package router

import (
	"github.com/gofiber/fiber/v2"

	apiv1 "github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/api/v1"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter wires the session-backed tenant context middleware and the
// API routes onto the app.
func InstallRouter(app *fiber.App, server *apiv1.APIServer) {
	setup(app, NewApiRouter(server))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
