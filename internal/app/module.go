package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.onetimepin.enabled") {
		if err := onetimepin.New(onetimepin.Dependency{
			Ctx:         a.ctx,
			Config:      a.config,
			Instrument:  a.ins,
			UUID:        a.uuid,
			GUID:        a.guid,
			UID:         a.uid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Router:      a.router,
			Messaging:   a.messaging,
			Idempotency: a.idemp,
		}); err != nil {
			slog.Error("failed to init module onetimepin", "error", err)
			os.Exit(1)
		}
	}
}
