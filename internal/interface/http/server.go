package httpapi

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appalert "github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/alert"
	appauth "github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/auth"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/dashboard"
	appmarket "github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/market"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/scan"
	alertDomain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/alert"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/portfolio"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/infra/memory"
	authinfra "github.com/engenhariadahumanidade/RAPERStockDASH/internal/infrastructure/auth"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/infrastructure/config"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/infrastructure/external/brapi"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/infrastructure/notify"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/infrastructure/persistence/postgres"
)

const (
	errCodeBadRequest         = "BAD_REQUEST"
	errCodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	errCodeUnauthorized       = "AUTH_UNAUTHORIZED"
	errCodeForbidden          = "AUTH_FORBIDDEN"
	errCodeNotFound           = "NOT_FOUND"
	errCodeInternal           = "INTERNAL_ERROR"

	accessCookieName = "access_token"
)

// SettingsRepository is the settings persistence port shared by the
// postgres repo and the memory store.
type SettingsRepository interface {
	FindByUserID(ctx context.Context, userID string) (alertDomain.Settings, error)
	Save(ctx context.Context, s alertDomain.Settings) (alertDomain.Settings, error)
	UpdateAlertState(ctx context.Context, settingsID int64, hash string, sentAt time.Time, fullMessage string) error
	AdminSettings(ctx context.Context) (*alertDomain.Settings, error)
	FirstSettings(ctx context.Context) (*alertDomain.Settings, error)
	UpdateGlobalSettings(ctx context.Context, webhookURL string, scanInterval int) error
	ListAutoAlertTargets(ctx context.Context) ([]scan.Target, error)
}

// StockRepository is the holdings persistence port.
type StockRepository interface {
	ListByUser(ctx context.Context, userID string) ([]portfolio.Stock, error)
	Upsert(ctx context.Context, s portfolio.Stock) (portfolio.Stock, error)
	Delete(ctx context.Context, userID string, id int64) error
}

// LogRepository is the system log persistence port.
type LogRepository interface {
	Append(ctx context.Context, e alertDomain.LogEntry) error
	ListRecent(ctx context.Context, userID string, limit int) ([]alertDomain.LogEntry, error)
	LastScanAt(ctx context.Context) (*time.Time, error)
}

// Server wires the HTTP routes to the use cases.
type Server struct {
	cfg        config.Config
	engine     *gin.Engine
	log        *zap.Logger
	tokenSvc   *authinfra.JWTIssuer
	loginUC    *appauth.LoginUseCase
	registerUC *appauth.RegisterUseCase
	meUC       *appauth.MeUseCase
	allowed    appauth.AllowedUserRepository
	settings   SettingsRepository
	stocks     StockRepository
	logs       LogRepository
	dashboard  *dashboard.UseCase
	dispatch   *appalert.DispatchUseCase
	scanUC     *scan.UseCase
	push       appalert.PushSender
	webhook    appalert.WebhookSender
}

// NewServer builds the full dependency graph. With db == nil everything
// runs on the in-memory store with seeded demo accounts.
func NewServer(cfg config.Config, db *sql.DB, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		users    appauth.UserRepository
		allowed  appauth.AllowedUserRepository
		settings SettingsRepository
		stocks   StockRepository
		logs     LogRepository
	)
	if db != nil {
		users = postgres.NewUserRepo(db)
		allowed = postgres.NewAllowedUserRepo(db)
		settings = postgres.NewSettingsRepo(db)
		stocks = postgres.NewStockRepo(db)
		logs = postgres.NewLogRepo(db)
	} else {
		store := memory.NewStore()
		store.SeedUsers()
		users = store
		allowed = store
		settings = store
		stocks = store
		logs = store
	}

	tokenSvc := authinfra.NewJWTIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	hasher := authinfra.BcryptHasher{}

	webhook := notify.NewWebhookClient()
	var push appalert.PushSender
	if cfg.Notifier.OneSignal.Enabled && cfg.Notifier.OneSignal.AppID != "" {
		push = notify.NewOneSignalClient(cfg.Notifier.OneSignal.AppID, cfg.Notifier.OneSignal.APIKey, "")
	}

	loc, err := time.LoadLocation(cfg.Scan.Timezone)
	if err != nil {
		loc = time.UTC
	}

	quotes := brapi.NewQuoteAdapter(brapi.NewClient(cfg.Market.BaseURL, cfg.Market.Token, cfg.Market.Timeout))
	analyzer := appmarket.NewAnalyzeUseCase(quotes, logger)

	dispatch := appalert.NewDispatchUseCase(appalert.Deps{
		Webhook:        webhook,
		Push:           push,
		Store:          settings,
		Logs:           logs,
		Location:       loc,
		HeartbeatHours: cfg.Scan.HeartbeatHours,
		Logger:         logger,
	})
	dashboardUC := dashboard.NewUseCase(stocks, settings, logs, analyzer, dispatch, logger)

	scanUC := scan.NewUseCase(scan.Deps{
		Directory: settingsDirectory{settings},
		Runner:    dashboardUC,
		Gate:      scan.NewGate(logs, scan.MinInterval),
		Webhook:   webhook,
		Logs:      logs,
		Location:  loc,
		Logger:    logger,
	})

	s := &Server{
		cfg:        cfg,
		log:        logger,
		tokenSvc:   tokenSvc,
		loginUC:    appauth.NewLoginUseCase(users, hasher, tokenSvc),
		registerUC: appauth.NewRegisterUseCase(users, allowed, hasher, tokenSvc),
		meUC:       appauth.NewMeUseCase(users),
		allowed:    allowed,
		settings:   settings,
		stocks:     stocks,
		logs:       logs,
		dashboard:  dashboardUC,
		dispatch:   dispatch,
		scanUC:     scanUC,
		push:       push,
		webhook:    webhook,
	}
	s.engine = s.buildRouter()
	return s
}

// ScanUseCase exposes the scan engine so cmd/api can run the worker on it.
func (s *Server) ScanUseCase() *scan.UseCase { return s.scanUC }

// Handler returns the root HTTP handler.
func (s *Server) Handler() *gin.Engine { return s.engine }

// settingsDirectory narrows the settings repository to the scan port.
type settingsDirectory struct {
	repo SettingsRepository
}

func (d settingsDirectory) AdminSettings(ctx context.Context) (*alertDomain.Settings, error) {
	return d.repo.AdminSettings(ctx)
}

func (d settingsDirectory) ListAutoAlertTargets(ctx context.Context) ([]scan.Target, error) {
	return d.repo.ListAutoAlertTargets(ctx)
}
