package onetimepin

import (
	"context"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/dialog"
	"github.com/shandysiswandi/onetimepin/internal/onetimepin/inbound"
	"github.com/shandysiswandi/onetimepin/internal/onetimepin/outbound/mq"
	"github.com/shandysiswandi/onetimepin/internal/onetimepin/outbound/remote"
	"github.com/shandysiswandi/onetimepin/internal/onetimepin/usecase"
	"github.com/shandysiswandi/onetimepin/internal/pkg/clock"
	"github.com/shandysiswandi/onetimepin/internal/pkg/config"
	"github.com/shandysiswandi/onetimepin/internal/pkg/goroutine"
	"github.com/shandysiswandi/onetimepin/internal/pkg/idempotency"
	"github.com/shandysiswandi/onetimepin/internal/pkg/instrument"
	"github.com/shandysiswandi/onetimepin/internal/pkg/messaging"
	"github.com/shandysiswandi/onetimepin/internal/pkg/router"
	"github.com/shandysiswandi/onetimepin/internal/pkg/uid"
	"github.com/shandysiswandi/onetimepin/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	GUID       uid.StringID               `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	// Idempotency is optional; without it a validation may be published twice
	// when the dialog is driven from several replicas.
	Idempotency idempotency.Idempotency
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoRemote, err := remote.New(remote.Config{
		BaseURL:   dep.Config.GetString("modules.onetimepin.remote.base_url"),
		Username:  dep.Config.GetString("modules.onetimepin.remote.username"),
		Password:  dep.Config.GetString("modules.onetimepin.remote.password"),
		SAPClient: dep.Config.GetString("modules.onetimepin.remote.sap_client"),
		Timeout:   dep.Config.GetSecond("modules.onetimepin.remote.timeout_seconds"),
	}, dep.Instrument)
	if err != nil {
		return err
	}

	repoNotify := mq.NewMessaging(dep.Messaging, dep.Idempotency, dep.Instrument, mq.Config{
		Topic:      dep.Config.GetString("modules.onetimepin.notify.topic"),
		MaxRetries: uint64(max(dep.Config.GetInt("modules.onetimepin.notify.max_retries"), 0)),
		Backoff:    dep.Config.GetMillisecond("modules.onetimepin.notify.backoff_millis"),
		MaxBackoff: dep.Config.GetMillisecond("modules.onetimepin.notify.max_backoff_millis"),
		DedupTTL:   dep.Config.GetMinute("modules.onetimepin.notify.dedup_ttl_minutes"),
	})

	uc := usecase.NewOneTimePin(usecase.Dependency{
		Config:     dep.Config,
		RepoRemote: repoRemote,
		RepoNotify: repoNotify,
		UUID:       dep.UUID,
		GUID:       dep.GUID,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Texts:      dialog.NewCatalog(dep.Config.GetMap("modules.onetimepin.texts")),
		Goroutine:  dep.Goroutine,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	dep.Goroutine.Go(dep.Ctx, "onetimepin.sweeper", uc.SweepDialogs)

	return nil
}
