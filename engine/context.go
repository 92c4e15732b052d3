package engine

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/snake-arena/config"
	"github.com/lixenwraith/snake-arena/status"
	"github.com/lixenwraith/snake-arena/telemetry"
)

// Platform describes the host the runtime was started on
type Platform struct {
	Mobile bool
}

// Context is built once at startup and passed to every component that needs shared services
type Context struct {
	Config   *config.Config
	Logger   *zap.Logger
	Errors   *telemetry.Handler
	Metrics  *status.Registry
	Platform Platform
}

// NewContext fills unset services with working defaults
func NewContext(cfg *config.Config, log *zap.Logger, errs *telemetry.Handler, platform Platform) *Context {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if errs == nil {
		errs = telemetry.NewHandler(log, telemetry.WithMaxErrors(cfg.Telemetry.MaxErrors))
	}
	return &Context{
		Config:   cfg,
		Logger:   log,
		Errors:   errs,
		Metrics:  status.NewRegistry(),
		Platform: platform,
	}
}
