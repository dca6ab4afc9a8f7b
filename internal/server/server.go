package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/lebbnb/apiserver/config"
	"github.com/lebbnb/apiserver/internal/auth"
	"github.com/lebbnb/apiserver/internal/db"
	"github.com/lebbnb/apiserver/internal/handlers"
	"github.com/lebbnb/apiserver/internal/mq"
	"github.com/lebbnb/apiserver/internal/notify"
	"github.com/lebbnb/apiserver/internal/services"
	"github.com/lebbnb/apiserver/internal/storage"
	"github.com/lebbnb/apiserver/internal/store"
	"github.com/sirupsen/logrus"
)

// Server wraps the HTTP server, router, and owned connections.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
	log        *logrus.Logger
}

// New constructs a fully wired Server: database, object storage, message
// broker, services, and routes. Construction fails fast on missing JWT
// secrets or unreachable backends.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenManager(cfg.JWT)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	objectBackend, err := newObjectStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	images := storage.NewImageStore(objectBackend)
	if err := images.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	broker, err := newBroker(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	publisher := notify.NewPublisher(broker)

	adminRepo := store.NewAdminRepository(dbConn)
	propertyRepo := store.NewPropertyRepository(dbConn)
	contactRepo := store.NewContactRepository(dbConn)
	contentRepo := store.NewContentRepository(dbConn)

	authService := services.NewAuthService(adminRepo, tokens)
	propertyService := services.NewPropertyService(propertyRepo, images)
	contactService := services.NewContactService(contactRepo, publisher, log)
	contentService := services.NewContentService(contentRepo)

	authHandler := handlers.NewAuthHandler(authService, cfg.AllowOpenRegistration)
	authMiddleware := authHandler.RequireAuth

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		httprate.LimitByIP(100, 15*time.Minute),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	router.Route("/properties", func(r chi.Router) {
		handlers.PropertyRouter(r, propertyService, authMiddleware)
	})
	router.Route("/contacts", func(r chi.Router) {
		handlers.ContactRouter(r, contactService, authMiddleware)
	})
	router.Route("/content", func(r chi.Router) {
		handlers.ContentRouter(r, contentService, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
		log:        log,
	}, nil
}

func newObjectStorage(ctx context.Context, cfg config.Config) (storage.ObjectStorage, error) {
	switch cfg.StorageBackend {
	case "gcs":
		return storage.NewGCSClient(ctx, cfg.GCS)
	case "minio", "":
		return storage.NewMinioClient(cfg.Minio)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func newBroker(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch cfg.MQBackend {
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	case "rabbitmq", "":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQBackend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("starting api server")
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
