package server

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/healthweb/planboard/internal/config"
	"github.com/healthweb/planboard/internal/domain"
	"github.com/healthweb/planboard/internal/handler"
	"github.com/healthweb/planboard/internal/middleware"
	"github.com/healthweb/planboard/internal/repository"
	"github.com/healthweb/planboard/internal/service"
	"github.com/healthweb/planboard/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoDB     *mongo.Database // required when PLAN_SOURCE=mongo
	RedisClient *redis.Client   // optional: week cache and idempotency
	// Fetcher overrides the configured week source (tests)
	Fetcher domain.WeekPlanFetcher
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	fetcher, invalidator := weekSource(deps)

	loc, err := deps.Config.Location()
	if err != nil {
		log.Printf("Warning: invalid board timezone, using local time: %v", err)
	}

	boards := service.NewBoardRegistry(fetcher, service.SyncOptions{
		FetchConcurrency: deps.Config.Board.FetchConcurrency,
		DecorationDelay:  deps.Config.Board.DecorationDelay,
		Location:         loc,
		Invalidator:      invalidator,
	})

	boardHandler := handler.NewBoardHandler(boards)

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	if idle := deps.Config.Board.IdleTTL; idle > 0 {
		go boards.RunJanitor(janitorCtx, deps.Config.Board.SweepInterval, idle)
	}

	app := fiber.New(fiber.Config{
		AppName:      "Planboard API",
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(telemetry.FiberMiddleware())

	app.Hooks().OnShutdown(func() error {
		stopJanitor()
		return nil
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "healthy",
			"service":     "planboard",
			"plan_source": deps.Config.PlanAPI.Source,
			"boards":      boards.Len(),
		})
	})

	v1 := app.Group("/v1")

	// ===========================================
	// BOARD API - /v1/board/* (any authenticated account)
	// ===========================================
	board := v1.Group("/board")
	board.Use(middleware.VerifyPlanToken(deps.Config.JWT.Secret))
	if deps.RedisClient != nil {
		board.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.Config.Server.IdempotencyTTL))
	}

	board.Put("/match", boardHandler.SelectMatch)
	board.Post("/range", boardHandler.SetRange)
	board.Post("/refresh", boardHandler.Refresh)
	board.Get("/days", boardHandler.ListDays)
	board.Get("/days/:date", boardHandler.GetDay)
	board.Get("/cells", boardHandler.ListCells)
	board.Put("/cells/:date", boardHandler.MountCell)
	board.Delete("/cells/:date", boardHandler.UnmountCell)
	board.Get("/today", boardHandler.Today)
	board.Get("/week-start", middleware.AuthorizeRole(domain.RoleTrainer, domain.RoleAdmin), boardHandler.WeekStart)
	board.Delete("/", boardHandler.DropBoard)

	return app
}

// weekSource picks the configured week source and wraps it in the Redis week cache
func weekSource(deps AppDependencies) (domain.WeekPlanFetcher, domain.WeekPlanInvalidator) {
	source := deps.Fetcher
	if source == nil {
		switch deps.Config.PlanAPI.Source {
		case config.PlanSourceMongo:
			source = repository.NewMongoPlanWeekRepository(deps.MongoDB)
		default:
			source = repository.NewPlanAPIClient(deps.Config.PlanAPI.BaseURL, deps.Config.PlanAPI.Timeout)
		}
	}

	if deps.RedisClient == nil || deps.Config.PlanAPI.WeekCacheTTL <= 0 {
		return source, nil
	}
	cached := repository.NewCachedWeekPlanRepository(
		source,
		repository.NewRedisCacheRepository(deps.RedisClient),
		deps.Config.PlanAPI.WeekCacheTTL,
	)
	return cached, cached
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	log.Printf("Error: %v", err)
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
