package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"portal-session-service/app/config"
	"portal-session-service/app/driver/kratos"
	"portal-session-service/app/driver/postgres"
	"portal-session-service/app/driver/rediscache"
	"portal-session-service/app/gateway"
	"portal-session-service/app/port"
	"portal-session-service/app/rest"
	"portal-session-service/app/rest/handlers"
	"portal-session-service/app/state"
	"portal-session-service/app/usecase"
)

// Container holds all dependencies for the application
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Drivers
	DB           *postgres.DB
	KratosClient *kratos.Client
	TokenCache   *rediscache.TokenCache

	// Gateways
	Provider *gateway.ProviderGateway

	// State and usecases
	Store        *state.Store
	AuthUsecase  *usecase.AuthUsecase
	Bootstrapper *usecase.Bootstrapper
	Subscriber   *usecase.EventSubscriber
}

// NewContainer creates and initializes a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	container := &Container{
		Config: cfg,
		Logger: logger,
	}

	// Initialize drivers
	var err error

	// Initialize database connection
	container.DB, err = postgres.NewConnection(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize Kratos client
	container.KratosClient, err = kratos.NewClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Kratos client: %w", err)
	}

	// Initialize session token cache
	container.TokenCache, err = rediscache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token cache: %w", err)
	}

	// Initialize repositories. The privileged pool is optional; an interface
	// value is only assigned when the pool actually exists so the repository
	// sees a plain nil otherwise.
	var privileged postgres.DatabaseIface
	if pool := container.DB.PrivilegedPool(); pool != nil {
		privileged = pool
	}
	profileRepository := postgres.NewProfileRepository(container.DB.Pool(), privileged, logger)

	// Initialize gateways
	kratosAdapter := kratos.NewClientAdapter(container.KratosClient, logger)
	container.Provider = gateway.NewProviderGateway(kratosAdapter, container.TokenCache, cfg.SessionPollInterval, logger)

	// Initialize state and usecases
	container.Store = state.New(logger)
	resolver := usecase.NewProfileResolver(profileRepository, logger)
	container.AuthUsecase = usecase.NewAuthUsecase(
		container.Provider,
		profileRepository,
		resolver,
		container.Store,
		container.TokenCache,
		logger,
	)
	container.Bootstrapper = usecase.NewBootstrapper(
		container.Provider,
		resolver,
		container.Store,
		cfg.BootstrapTimeout,
		logger,
	)
	container.Subscriber = usecase.NewEventSubscriber(
		container.Provider,
		resolver,
		container.Store,
		logger,
	)

	logger.Info("container initialized with full dependency stack")

	return container, nil
}

// Start brings up the session pipeline. The subscriber registers its
// listener before the watcher starts, so even the watcher's initial-session
// event has a live handler. Bootstrap runs in the background so HTTP can
// come up while the session is still resolving.
func (c *Container) Start(ctx context.Context) error {
	if err := c.Subscriber.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session event subscriber: %w", err)
	}

	c.Provider.Start(ctx)

	go c.Bootstrapper.Bootstrap(ctx)
	return nil
}

// CreateRouter creates and returns a fully configured Echo router
func (c *Container) CreateRouter() *echo.Echo {
	routerConfig := rest.RouterConfig{
		Logger:   c.Logger,
		Auth:     c.AuthUsecase,
		Sessions: c.AuthUsecase,
		HealthChecks: map[string]handlers.HealthChecker{
			"database": c.DB.HealthCheck,
			"kratos":   c.KratosClient.HealthCheck,
			"redis":    c.TokenCache.HealthCheck,
		},
		EnableDebug:    c.Config.LogLevel == "debug",
		EnableAuditLog: c.Config.EnableAuditLog,
	}

	router := rest.NewRouter(routerConfig)

	c.Logger.Info("full API router created")
	return router
}

// Close closes all resources in reverse dependency order.
func (c *Container) Close() error {
	if c.Subscriber != nil {
		c.Subscriber.Close()
	}
	if c.Provider != nil {
		c.Provider.Close()
	}
	if c.TokenCache != nil {
		if err := c.TokenCache.Close(); err != nil {
			c.Logger.Warn("failed to close token cache", "error", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}

	c.Logger.Info("container closed")
	return nil
}

var _ port.AuthOperations = (*usecase.AuthUsecase)(nil)
var _ port.SessionReader = (*usecase.AuthUsecase)(nil)
