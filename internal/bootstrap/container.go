package bootstrap

import (
	"context"
	"log"

	"idealab-be/internal/config"
	"idealab-be/internal/controller"
	"idealab-be/internal/handler"
	"idealab-be/internal/pkg/logger"
	"idealab-be/internal/pkg/mailer"
	"idealab-be/internal/pkg/serverutils"
	"idealab-be/internal/repository/memory"
	"idealab-be/internal/repository/unitofwork"
	"idealab-be/internal/service"
	"idealab-be/internal/websocket"
	"idealab-be/pkg/bus"
	"idealab-be/pkg/events"
	pktNats "idealab-be/pkg/nats"
	"idealab-be/pkg/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	DB *gorm.DB

	// Controllers
	IdeaController controller.IIdeaController
	RoleController controller.IRoleController

	// Auth guards every route except health and the websocket handshake.
	Auth fiber.Handler

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	// Background workers, started by Start.
	NotificationService *service.NotificationService
	OutboxRelay         *service.OutboxRelay

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	wsLogger := logger.NewIsolatedLogger(cfg.App.NotificationLog)

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	c := &Container{DB: db, Logger: sysLogger}

	// 2. Event Bus: NATS JetStream, or the in-process bus when NATS is down.
	var publisher events.Publisher
	var subscriber events.Subscriber
	natsPub, pubErr := pktNats.NewPublisher(cfg.App.NatsURL)
	natsSub, subErr := pktNats.NewSubscriber(cfg.App.NatsURL)
	if pubErr == nil && subErr == nil {
		publisher, subscriber = natsPub, natsSub
		c.closers = append(c.closers, natsPub.Close, natsSub.Close)
	} else {
		log.Printf("[WARN] NATS unavailable (publisher: %v, subscriber: %v); using in-process bus", pubErr, subErr)
		if natsPub != nil {
			natsPub.Close()
		}
		if natsSub != nil {
			natsSub.Close()
		}
		local := bus.NewLocalBus()
		publisher, subscriber = local, local
		c.closers = append(c.closers, func() { _ = local.Close() })
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		rdb = nil
	} else {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// 3. Workflow
	policy := workflow.NewRolePolicy()
	table := workflow.NewTransitionTable()
	registry := service.LoadRoleRegistry(context.Background(), uowFactory, cfg.Workflow.FallbackRoles, sysLogger)
	roleService := service.NewRoleService(uowFactory, registry, policy, memory.NewRoleCache(cfg.Workflow.RoleCacheTTL))
	engine := workflow.NewEngine(policy, table, unitofwork.NewWorkflowTransactor(uowFactory), roleService, sysLogger)

	ideaService := service.NewIdeaService(uowFactory, engine, roleService, sysLogger)

	// 4. Notification System
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)
	c.NotificationService = service.NewNotificationService(uowFactory, roleService, policy, subscriber, c.WebSocketHub, emailService, wsLogger)
	c.NotificationHandler = handler.NewNotificationHandler(c.NotificationService, c.WebSocketHub, cfg.App.JwtSecret, wsLogger)
	c.OutboxRelay = service.NewOutboxRelay(uowFactory, publisher, cfg.Workflow, sysLogger)

	// 5. Controllers
	c.Auth = serverutils.NewJwtMiddleware(cfg.App.JwtSecret)
	c.IdeaController = controller.NewIdeaController(ideaService)
	c.RoleController = controller.NewRoleController(roleService)

	return c
}

// Start runs the background workers until ctx is cancelled.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)
	if err := c.NotificationService.Start(); err != nil {
		return err
	}
	c.OutboxRelay.Start(ctx)
	return nil
}

// Close stops the relay and releases bus and cache connections.
func (c *Container) Close() {
	c.OutboxRelay.Stop()
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
