package webhook

import (
	"nurture_backend/internal/events"
	apphttp "nurture_backend/internal/http"
	"nurture_backend/internal/nurture/intent"
	"nurture_backend/internal/nurture/repository"
	"nurture_backend/internal/nurture/routing"
	"nurture_backend/platform/logger"
	"nurture_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
}

// NewModule wires the inbound SMS pipeline: API key repository, dedup
// guard, classifier, router, and the HTTP handler.
func NewModule(
	pool *pgxpool.Pool,
	store *repository.Repo,
	vocab intent.Vocabulary,
	rdb *redis.Client,
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
	region string,
) *Module {
	repo := NewRepository(pool)
	classifier := intent.NewClassifier(vocab)
	router := routing.NewRouter(nil)
	service := NewService(store, store, store, classifier, router, rdb, eventBus, log, region)
	handler := NewHandler(service, repo, val)

	return &Module{
		handler: handler,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public provider callback (API key auth, no JWT)
	webhookGroup := ctx.V1.Group("/webhook")
	webhookGroup.Use(APIKeyAuthMiddleware(m.repo))
	webhookGroup.POST("/sms", m.handler.HandleInboundSMS)

	// Admin API key management (JWT auth + admin role)
	adminGroup := ctx.Admin.Group("/webhook/keys")
	adminGroup.POST("", m.handler.HandleCreateAPIKey)
	adminGroup.GET("", m.handler.HandleListAPIKeys)
	adminGroup.DELETE("/:keyId", m.handler.HandleRevokeAPIKey)
}
