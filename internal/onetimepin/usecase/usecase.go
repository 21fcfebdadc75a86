package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/dialog"
	"github.com/shandysiswandi/onetimepin/internal/onetimepin/entity"
	"github.com/shandysiswandi/onetimepin/internal/pkg/clock"
	"github.com/shandysiswandi/onetimepin/internal/pkg/config"
	"github.com/shandysiswandi/onetimepin/internal/pkg/goroutine"
	"github.com/shandysiswandi/onetimepin/internal/pkg/instrument"
	"github.com/shandysiswandi/onetimepin/internal/pkg/uid"
	"github.com/shandysiswandi/onetimepin/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDialogTTL     = 15 * time.Minute
	defaultSweepInterval = 30 * time.Second
	defaultRemoteTimeout = 30 * time.Second
)

type repoRemote interface {
	dialog.RemoteService
}

type repoNotify interface {
	PublishValidated(ctx context.Context, v entity.Validation) error
}

type Usecase struct {
	cfg        config.Config
	repoRemote repoRemote
	repoNotify repoNotify
	uuid       uid.StringID
	guid       uid.StringID
	uid        uid.NumberID
	clock      clock.Clocker
	validator  validator.Validator
	texts      dialog.Texts
	goroutine  *goroutine.Manager
	ins        instrument.Instrumentation

	dialogMu sync.RWMutex
	dialogs  map[string]*dialogEntry

	streamMu sync.RWMutex
	streams  map[string]map[*subscriber]struct{}
}

type Dependency struct {
	Config     config.Config
	RepoRemote repoRemote
	RepoNotify repoNotify
	// UUID names dialogs, GUID names pin requests and UID numbers stream events.
	UUID       uid.StringID
	GUID       uid.StringID
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	Texts      dialog.Texts
	Goroutine  *goroutine.Manager
	Instrument instrument.Instrumentation
}

func NewOneTimePin(dep Dependency) *Usecase {
	return &Usecase{
		cfg:        dep.Config,
		repoRemote: dep.RepoRemote,
		repoNotify: dep.RepoNotify,
		uuid:       dep.UUID,
		guid:       dep.GUID,
		uid:        dep.UID,
		clock:      dep.Clock,
		validator:  dep.Validator,
		texts:      dep.Texts,
		goroutine:  dep.Goroutine,
		ins:        dep.Instrument,
		dialogs:    make(map[string]*dialogEntry),
		streams:    make(map[string]map[*subscriber]struct{}),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("onetimepin.usecase").Start(ctx, name)
}

// dialogConfig is read per dialog so a config reload applies to the next open.
func (s *Usecase) dialogConfig() dialog.Config {
	return dialog.Config{
		CodeLength:     s.cfg.GetInt("modules.onetimepin.code_length"),
		ChannelScheme:  entity.SchemeFromString(s.cfg.GetString("modules.onetimepin.channel_scheme")),
		ValidityWindow: s.cfg.GetSecond("modules.onetimepin.validity_seconds"),
		TickInterval:   s.cfg.GetMillisecond("modules.onetimepin.tick_millis"),
	}
}

func (s *Usecase) dialogTTL() time.Duration {
	if ttl := s.cfg.GetMinute("modules.onetimepin.dialog_ttl_minutes"); ttl > 0 {
		return ttl
	}
	return defaultDialogTTL
}

func (s *Usecase) sweepInterval() time.Duration {
	if iv := s.cfg.GetSecond("modules.onetimepin.sweep_interval_seconds"); iv > 0 {
		return iv
	}
	return defaultSweepInterval
}

// remoteContext detaches a backend call from the request and bounds it by the
// remote timeout.
func (s *Usecase) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.cfg.GetSecond("modules.onetimepin.remote.timeout_seconds")
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
