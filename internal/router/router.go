package router

import (
	"context"
	"embed"
	"errors"
	"net/http"
	"time"

	"imagematch/app"
	"imagematch/internal/middleware"
	"imagematch/pkg/events"
	"imagematch/pkg/httperror"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"
)

//go:embed views/*
var viewsFS embed.FS

type Request any
type Response any

type HandlerInterface[R Request, Res Response] interface {
	Handle(ctx context.Context, req *R) (*Res, error)
}

type Dependencies struct {
	Repository  app.Repository
	Publisher   events.Publisher
	BatchSize   int
	ServiceName string
}

// New builds the review service: the HTML page at / and the JSON API under
// /api/v1.
func New(deps Dependencies) *fiber.App {
	engine := html.NewFileSystem(http.FS(viewsFS), ".html")

	fiberApp := fiber.New(fiber.Config{
		Views:        engine,
		IdleTimeout:  5 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Concurrency:  256 * 1024,
	})

	batchHandler := app.NewGetUnlabeledBatchHandler(deps.Repository, deps.BatchSize)
	applyHandler := app.NewApplyLabelsHandler(deps.Repository, deps.Publisher, deps.ServiceName)
	categoriesHandler := app.NewGetCategoriesHandler()
	statsHandler := app.NewGetLabelStatsHandler(deps.Repository)
	healthHandler := app.NewGetHealthHandler(deps.Repository)

	fiberApp.Get("/healthz", handle[app.GetHealthRequest, app.GetHealthResponse](healthHandler))

	fiberApp.Use(middleware.NewReviewerMiddleware())

	pages := &reviewPages{batch: batchHandler, apply: applyHandler}
	fiberApp.Get("/", pages.show)
	fiberApp.Post("/", pages.submit)

	publicRoutes := fiberApp.Group("/api/v1")
	publicRoutes.Get("/categories", handle[app.GetCategoriesRequest, app.GetCategoriesResponse](categoriesHandler))
	publicRoutes.Get("/stats", handle[app.GetLabelStatsRequest, app.GetLabelStatsResponse](statsHandler))
	publicRoutes.Get("/images/unlabeled", handle[app.GetUnlabeledBatchRequest, app.GetUnlabeledBatchResponse](batchHandler))
	publicRoutes.Post("/images/labels", handle[app.ApplyLabelsRequest, app.ApplyLabelsResponse](applyHandler))

	return fiberApp
}

func handle[R Request, Res Response](handler HandlerInterface[R, Res]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req R

		if err := c.BodyParser(&req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
			return writeError(c, httperror.BadRequest(
				"request.invalid_body",
				"Invalid body",
				fiber.Map{"error": err.Error()},
			))
		}

		if err := c.ParamsParser(&req); err != nil {
			return writeError(c, httperror.BadRequest(
				"request.invalid_path_params",
				"Invalid path params",
				fiber.Map{"error": err.Error()},
			))
		}

		if err := c.QueryParser(&req); err != nil {
			return writeError(c, httperror.BadRequest(
				"request.invalid_query_params",
				"Invalid query params",
				fiber.Map{"error": err.Error()},
			))
		}

		if err := c.ReqHeaderParser(&req); err != nil {
			return writeError(c, httperror.BadRequest(
				"request.invalid_headers",
				"Invalid headers",
				fiber.Map{"error": err.Error()},
			))
		}

		ctx := c.UserContext()

		res, err := handler.Handle(ctx, &req)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(res)
	}
}

func writeError(c *fiber.Ctx, err error) error {
	var httpErr *httperror.Error
	if errors.As(err, &httpErr) {
		payload := fiber.Map{
			"code":    httpErr.Code,
			"message": httpErr.Message,
		}

		if httpErr.Details != nil {
			payload["details"] = httpErr.Details
		}

		if httpErr.Status >= fiber.StatusInternalServerError {
			zap.L().Error("Handler returned server error", zap.String("code", httpErr.Code), zap.Error(httpErr))
		} else {
			zap.L().Warn("Handler returned client error", zap.String("code", httpErr.Code), zap.Error(httpErr))
		}

		return c.Status(httpErr.Status).JSON(payload)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		zap.L().Warn("Fiber validation error", zap.String("message", fiberErr.Message), zap.Error(err))
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"code":    "request.invalid",
			"message": fiberErr.Message,
		})
	}

	zap.L().Error("Unhandled error", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"code":    "internal_server_error",
		"message": "Internal server error.",
	})
}
