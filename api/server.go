// Package api serves user task records over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/SirZenith/taskmon/usertask"
	"github.com/charmbracelet/log"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"
)

const shutdownTimeout = 5 * time.Second

// ErrorResponse is returned by every endpoint on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{Error: err.Error()}
}

type Server struct {
	bindAddress string
	echo        *echo.Echo
	service     *usertask.Service
	metrics     *metrics
	healthy     *atomic.Bool
	addr        *atomic.String
	stopped     chan error
}

func NewServer(service *usertask.Service, bindAddress string) *Server {
	s := &Server{
		bindAddress: bindAddress,
		echo:        echo.New(),
		service:     service,
		metrics:     newMetrics(),
		healthy:     atomic.NewBool(false),
		addr:        atomic.NewString(""),
	}

	s.configure()

	return s
}

func (s *Server) configure() {
	e := s.echo
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      middleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
	}))
	e.Use(s.requestLogger)

	e.GET("/healthz", s.getHealthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	e.POST("/user-tasks", s.saveUserTask)
	e.GET("/user-tasks/:userAddress", s.getTasksByOwner)
}

// Handler returns HTTP handler of all routes.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr returns listening address, empty before Start.
func (s *Server) Addr() string {
	return s.addr.Load()
}

// Start begins listening and serves in background. Server reports healthy
// once listener is ready.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.bindAddress)
	if err != nil {
		return err
	}

	s.echo.Listener = listener
	s.addr.Store(listener.Addr().String())
	s.stopped = make(chan error, 1)
	s.healthy.Store(true)

	go func() {
		err := s.echo.Start("")
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.healthy.Store(false)
		s.stopped <- err
	}()

	log.Infof("user task backend started, bind-address=%s", listener.Addr())

	return nil
}

// Shutdown stops server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.healthy.Store(false)
	return s.echo.Shutdown(ctx)
}

// Run serves until ctx is cancelled or server fails.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case err := <-s.stopped:
		if err != nil {
			log.Errorf("error serving: %s", err)
		}
		return err
	}

	log.Info("stopping user task backend ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err := <-s.stopped
	log.Info("stopping user task backend ... done")

	return err
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		if err := next(c); err != nil {
			c.Error(err)
		}

		req := c.Request()
		code := c.Response().Status

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		s.metrics.observeRequest(req.Method, path, code)

		log.Debug("request",
			"method", req.Method,
			"uri", req.RequestURI,
			"status", code,
			"latency", time.Since(start),
		)

		return nil
	}
}
