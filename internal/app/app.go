package app

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/onetimepin/internal/pkg/clock"
	"github.com/shandysiswandi/onetimepin/internal/pkg/config"
	"github.com/shandysiswandi/onetimepin/internal/pkg/goroutine"
	"github.com/shandysiswandi/onetimepin/internal/pkg/idempotency"
	"github.com/shandysiswandi/onetimepin/internal/pkg/instrument"
	"github.com/shandysiswandi/onetimepin/internal/pkg/jwt"
	"github.com/shandysiswandi/onetimepin/internal/pkg/messaging"
	"github.com/shandysiswandi/onetimepin/internal/pkg/router"
	"github.com/shandysiswandi/onetimepin/internal/pkg/uid"
	"github.com/shandysiswandi/onetimepin/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID
	guid      uid.StringID
	jwt       jwt.JWT

	// resources
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	messaging messaging.Publisher

	// server
	router     *router.Router
	httpServer *http.Server
	sseServer  *http.Server

	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initCache()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()

	return app
}
