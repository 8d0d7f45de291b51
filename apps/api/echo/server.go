package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ubunifu/launchpad/core"
	"github.com/ubunifu/launchpad/core/application"
	"github.com/ubunifu/launchpad/core/user"
)

type (
	// Deps are the collaborators the API server hands down to its handlers.
	Deps struct {
		Logger  core.Logger
		UserSvc user.Service
		AppSvc  application.Service
	}

	Server interface {
		http.Handler
		Start() error
		Shutdown(context.Context) error
	}

	server struct {
		addr string
		app  *echo.Echo
		deps *Deps
	}
)

var _ Server = (*server)(nil)

// NewServer builds the API server. A caught shutdown error (lost DB connection
// and the like) is relayed on the shutdown channel so main can stop gracefully.
func NewServer(addr string, shutdown chan<- os.Signal, deps *Deps) Server {
	s := &server{
		addr: addr,
		app:  echo.New(),
		deps: deps,
	}
	signalShutdown := func() {
		if shutdown != nil {
			shutdown <- syscall.SIGTERM
		}
	}
	s.setup(signalShutdown)
	return s
}

func (s *server) setup(signalShutdown func()) {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !core.Conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, signalShutdown)
	s.app.Debug = core.Conf.Debug && !core.Conf.TestMode
	s.app.HideBanner = true

	s.app.GET("/", home)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.deps.UserSvc)
	registerApplicationAPI(v1, jwt, s.deps.AppSvc)
}

func (s *server) Start() error {
	return s.app.Start(s.addr)
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}
