package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/app/repository"
	apiv1 "github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/api/v1"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/cache"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/database"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/env"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/eventlog"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/plan"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/router"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/session"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/subscription"
	"github.com/J0T4CL/erp-auraflow-JUN25-sub000/internal/pkg/usage"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	session.NewSessionStore()
	repository.InitializeFactory(database.GetDB())

	catalog := plan.Default()
	events := eventlog.New()
	svc := subscription.NewService(repository.GetGlobalRepositories(), catalog, events, cache.GetClient())
	reporter := usage.NewReporter(cache.GetClient())
	server := apiv1.NewAPIServer(svc, reporter)

	// Find the correct base path
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/auraflow to project root
		"../../../", // Fallback
	}
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}
	if basePath == "" {
		panic("Could not find project root directory")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:           "AuraFlow Entitlements",
		EnablePrintRoutes: env.IsDev(),
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app, server)

	return app
}
