// Package server wires the itinerary services behind a gin HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"itinerary-router/internal/cache"
	"itinerary-router/internal/config"
	"itinerary-router/internal/geocoding"
	"itinerary-router/internal/georoute"
	"itinerary-router/internal/handlers"
	"itinerary-router/internal/itinerary"
	"itinerary-router/internal/places"
	"itinerary-router/internal/planner"
	"itinerary-router/internal/resolver"
	"itinerary-router/internal/sqlite"
)

const (
	routeCachePrefix = "itinerary-router:route:"
	purgeInterval    = 15 * time.Minute
)

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	store      *sqlite.Store
	redis      *cache.RedisCache
	geocoder   *geocoding.Nominatim
	listener   net.Listener
	addr       string
	stop       chan struct{}
	log        logrus.FieldLogger
}

// New creates and initializes a new server (does not start it)
func New(cfg *config.Config, log logrus.FieldLogger) (*Server, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	log.Info("initializing data store")
	store, err := sqlite.New(sqlite.Config{
		Driver:        cfg.Database.Driver,
		DSN:           cfg.Database.DSN,
		RouteCacheTTL: cfg.Cache.TTL,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize data store: %w", err)
	}

	s := &Server{store: store, addr: cfg.Server.Addr, stop: make(chan struct{}), log: log}

	var results georoute.ResultCache = store.RouteCache()
	if cfg.Cache.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		s.redis, err = cache.Open(ctx, cfg.Cache.RedisURL, routeCachePrefix, cfg.Cache.TTL)
		cancel()
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		results = s.redis
		log.Info("route cache backed by redis")
	}

	retry := georoute.DefaultRetryPolicy()
	retry.MaxRetries = cfg.Routing.MaxRetries
	if cfg.Routing.BaseDelay > 0 {
		retry.BaseDelay = cfg.Routing.BaseDelay
	}
	osrm := georoute.NewOSRMClient(georoute.Config{
		BaseURL: cfg.Routing.BaseURL,
		Timeout: cfg.Routing.Timeout,
		Retry:   retry,
	}, log)
	router := georoute.NewCachedClient(osrm, results, log)

	orch := itinerary.NewOrchestrator(itinerary.NewBuilder(router, log), log)

	var ai planner.Planner
	if cfg.PlannerEnabled() {
		ai = planner.NewClient(cfg.Planner.BaseURL, cfg.Planner.APIKey, cfg.Planner.Model, cfg.Planner.Timeout, log)
	} else {
		log.Warn("PLANNER_API_KEY not set, trips are planned from top-rated places")
	}
	search := places.NewClient(cfg.Places.BaseURL, cfg.Places.APIKey, cfg.Places.Timeout, log)

	s.geocoder = geocoding.NewNominatim("", time.Second, log)

	h := &handlers.Handler{
		DB:           store,
		Planner:      itinerary.NewTripPlanner(search, ai, resolver.New(log), orch, log),
		Orchestrator: orch,
		Geocoder:     s.geocoder,
		Sessions:     handlers.NewSessionLocks(),
		Log:          log,
	}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.engine.Use(requestLogger(log))
	s.engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	h.RegisterRoutes(s.engine)

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	s.log.WithField("addr", actualAddr).Info("starting server")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("server error")
		}
	}()
	if s.redis == nil {
		go s.purgeRouteCache(purgeInterval)
	}

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server and releases its clients
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stop)
	err := s.httpServer.Shutdown(ctx)
	s.geocoder.Close()
	if s.redis != nil {
		err = errors.Join(err, s.redis.Close())
	}
	return errors.Join(err, s.store.Close())
}

// purgeRouteCache drops expired database cache rows until Shutdown
func (s *Server) purgeRouteCache(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			n, err := s.store.RouteCache().Purge(context.Background(), now)
			if err != nil {
				s.log.WithError(err).Warn("route cache purge failed")
				continue
			}
			if n > 0 {
				s.log.WithField("rows", n).Debug("expired route cache rows purged")
			}
		}
	}
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}
