package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Skotchmaster/phone_shop/internal/cache"
	"github.com/Skotchmaster/phone_shop/internal/httpserver"
	"github.com/Skotchmaster/phone_shop/internal/inventory"
	"github.com/Skotchmaster/phone_shop/internal/repo"
	"github.com/Skotchmaster/phone_shop/internal/service"
	"github.com/Skotchmaster/phone_shop/pkg/authclient"
	"github.com/Skotchmaster/phone_shop/pkg/config"
	pkgdb "github.com/Skotchmaster/phone_shop/pkg/db"
	"github.com/Skotchmaster/phone_shop/pkg/events"
	"github.com/Skotchmaster/phone_shop/pkg/logging"
	loggingmw "github.com/Skotchmaster/phone_shop/pkg/middleware/logging"
	"github.com/Skotchmaster/phone_shop/pkg/observability"
	"github.com/Skotchmaster/phone_shop/pkg/search"
)

var (
	port            int
	shutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Starts the HTTP API on SERVER_PORT (or --port).

Redis, Elasticsearch, Kafka and the OTLP exporter are optional: each one is
enabled only when its address is configured.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&port, "port", 0, "listen port, overrides SERVER_PORT")
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
}

// backends holds the optional infrastructure the services are wired to.
type backends struct {
	redis    *redis.Client
	cache    service.ProductCache
	index    service.ProductIndex
	producer *events.Producer
	events   service.EventPublisher
	auth     *authclient.Client
}

func (b *backends) close() {
	if b.producer != nil {
		if err := b.producer.Close(); err != nil {
			slog.Warn("kafka_close_failed", "error", err)
		}
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

// connectBackends dials whatever is configured. A backend that cannot be
// reached is logged and left out instead of stopping the server.
func connectBackends(ctx context.Context, cfg config.Config, l *slog.Logger) *backends {
	b := &backends{}

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			l.Warn("redis_unavailable", "addr", cfg.RedisAddr, "error", err)
		} else {
			b.redis = rdb
			b.cache = cache.NewProductCache(rdb, cfg.CacheTTL)
		}
	}

	if cfg.ESURL != "" {
		es, err := search.NewClient(ctx, search.Config{
			URL:      cfg.ESURL,
			Username: cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			l.Warn("elasticsearch_unavailable", "url", cfg.ESURL, "error", err)
		} else {
			b.index = es
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			l.Warn("kafka_unavailable", "brokers", cfg.KafkaBrokers, "error", err)
		} else {
			b.producer = p
			b.events = p
		}
	}

	if cfg.AuthHTTPURL != "" {
		b.auth = authclient.NewClient(cfg.AuthHTTPURL)
	}
	return b
}

func newRouter(db *gorm.DB, b *backends, cfg config.Config, logger *slog.Logger) *echo.Echo {
	r := &repo.GormRepo{DB: db}
	ledger := inventory.NewLedger(db)
	catalog := &service.CatalogService{Repo: r, Ledger: ledger, Cache: b.cache, Index: b.index, Events: b.events}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(observability.Tracing(cfg.ServiceName))
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler:  &httpserver.CatalogHTTP{Svc: catalog},
		OrderHandler:    &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: r, Ledger: ledger, Catalog: catalog, Events: b.events}},
		UserHandler:     &httpserver.UserHTTP{Svc: &service.UserService{Repo: r, Events: b.events}},
		CommentHandler:  &httpserver.CommentHTTP{Svc: &service.CommentService{Repo: r}},
		WishlistHandler: &httpserver.WishlistHTTP{Svc: &service.WishlistService{Repo: r}},
		VendorHandler:   &httpserver.VendorHTTP{Svc: &service.VendorService{Repo: r, Ledger: ledger, Catalog: catalog, Events: b.events}},
		JWTSecret:       cfg.JWTAccessSecret,
		AuthClient:      b.auth,
		Ready: func(ctx context.Context) error {
			return pkgdb.Ping(ctx, db)
		},
	})
	return e
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer pkgdb.Close(db)

	shutdownTracing, err := observability.InitTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to init tracing: %w", err)
	}

	b := connectBackends(ctx, cfg, logger)
	cancel()
	defer b.close()

	addr := ":" + strconv.Itoa(cfg.ServerPort)
	if port != 0 {
		addr = ":" + strconv.Itoa(port)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(db, b, cfg, logger),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-stop:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown_failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing_shutdown_failed", "error", err)
	}

	logger.Info("stopped")
	return nil
}
