package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/mathtutor/apiserver/config"
	"github.com/mathtutor/apiserver/internal/db"
	"github.com/mathtutor/apiserver/internal/events"
	"github.com/mathtutor/apiserver/internal/handlers"
	"github.com/mathtutor/apiserver/internal/secrets"
	"github.com/mathtutor/apiserver/internal/services"
	"github.com/mathtutor/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  events.Publisher
}

// New constructs a Server: store backend, event publisher, services,
// handlers and middleware, all driven by config.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	userStore, dbConn, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(ctx, cfg.Events)
	if err != nil {
		if dbConn != nil {
			_ = dbConn.Close()
		}
		return nil, err
	}

	userService := services.NewUserService(userStore, publisher, logger)

	apiKey, err := secrets.ResolveAPIKey(ctx, cfg.AI)
	if err != nil {
		// The auth flows do not need the key; chat requests will fail
		// upstream until it is configured.
		logger.WarnContext(ctx, "completion api key not configured", "error", err)
	}
	chatService := services.NewChatService(userStore, cfg.AI, apiKey, logger)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	// Every response carries the permissive cross-origin header.
	router.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler)

	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService)
	})
	router.Route("/chat", func(r chi.Router) {
		handlers.ChatRouter(r, chatService)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	return s.httpServer.Close()
}

func openStore(ctx context.Context, cfg config.Config) (store.UserStore, *sql.DB, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres, "":
		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgresStore(dbConn), dbConn, nil

	case config.StoreBackendDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Dynamo.Region))
		if err != nil {
			return nil, nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.Dynamo.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Dynamo.Endpoint)
			}
		})
		return store.NewDynamoStore(client, cfg.Dynamo.Table), nil, nil

	case config.StoreBackendMemory:
		return store.NewMemoryStore(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func newPublisher(ctx context.Context, cfg config.EventsConfig) (events.Publisher, error) {
	switch cfg.Backend {
	case config.EventsBackendNone, "":
		return events.Noop{}, nil
	case config.EventsBackendRabbitMQ:
		return events.NewRabbitMQPublisher(cfg.RabbitMQ)
	case config.EventsBackendPubSub:
		return events.NewPubSubPublisher(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}
