package nurture

import (
	"time"

	"nurture_backend/internal/events"
	apphttp "nurture_backend/internal/http"
	"nurture_backend/internal/nurture/handler"
	"nurture_backend/internal/nurture/repository"
	"nurture_backend/internal/nurture/service"
	"nurture_backend/internal/nurture/stage"
	"nurture_backend/platform/config"
	"nurture_backend/platform/logger"
	"nurture_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ModuleConfig narrows the configuration the nurture module needs.
type ModuleConfig interface {
	config.NurtureConfig
	config.SMSConfig
}

// Module is the nurture bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	sweeper *service.Sweeper
	expirer *service.Expirer
	repo    *repository.Repo
}

// NewModule wires the nurture engine: repository, timing policy,
// templates, sweep and expirer services, and the admin handler.
func NewModule(
	pool *pgxpool.Pool,
	sender service.SMSSender,
	settings Settings,
	loc *time.Location,
	bus events.Bus,
	val *validator.Validator,
	cfg ModuleConfig,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	policy := stage.NewPolicy(loc, nil)

	sweeper := service.NewSweeper(repo, sender, policy, settings.Templates, bus, log, service.SweeperOptions{
		BatchSize:   cfg.GetSweepBatchSize(),
		Workers:     cfg.GetSweepWorkers(),
		PhoneRegion: cfg.GetPhoneRegion(),
		SendTimeout: cfg.GetSMSSendTimeout(),
	})
	expirer := service.NewExpirer(repo, log, cfg.GetSnoozeBatchSize(), nil)
	h := handler.New(sweeper, expirer, repo, val)

	return &Module{handler: h, sweeper: sweeper, expirer: expirer, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "nurture"
}

// RegisterRoutes mounts the admin trigger surface.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	grp := ctx.Admin.Group("/nurture")
	grp.POST("/sweep", m.handler.RunSweep)
	grp.POST("/snooze-expirations", m.handler.ExpireSnoozes)
	grp.GET("/leads/:id/messages", m.handler.ListMessages)
}

// Sweeper exposes the sweep service to the scheduler worker.
func (m *Module) Sweeper() *service.Sweeper {
	return m.sweeper
}

// Expirer exposes the expirer service to the scheduler worker.
func (m *Module) Expirer() *service.Expirer {
	return m.expirer
}

// Repository exposes the store for other modules (webhook routing).
func (m *Module) Repository() *repository.Repo {
	return m.repo
}
