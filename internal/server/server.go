// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"xrpl-wallet-bot/internal/bot"
	"xrpl-wallet-bot/internal/chains/xrpl"
	"xrpl-wallet-bot/internal/config"
	"xrpl-wallet-bot/internal/conversation"
	"xrpl-wallet-bot/internal/domain"
	"xrpl-wallet-bot/internal/handler"
	"xrpl-wallet-bot/internal/lock"
	"xrpl-wallet-bot/internal/price"
	"xrpl-wallet-bot/internal/publisher"
	"xrpl-wallet-bot/internal/repository"
	"xrpl-wallet-bot/internal/router"
	"xrpl-wallet-bot/internal/security"
	"xrpl-wallet-bot/internal/usecase"
)

// Server owns every long-lived resource of the bot process.
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	db         *pgxpool.Pool
	rdb        *redis.Client
	api        *tgbotapi.BotAPI
	telegram   *handler.TelegramHandler
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// --- Key vault ---
	vault, err := security.NewEncryption(cfg.Security.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("invalid ENCRYPTION_KEY: %w", err)
	}

	// --- DB connection ---
	db, err := config.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := repository.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	// --- Redis (optional) ---
	rdb, err := config.ConnectRedis(ctx, cfg.Redis, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	var (
		locker lock.Locker         = lock.NewLocalLocker()
		pub    publisher.Publisher = publisher.NopPublisher{}
	)
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, logger)
		pub = publisher.NewRedisPublisher(rdb, logger)
	}

	// --- Telegram ---
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		closeAll(db, rdb)
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	api.Debug = cfg.Telegram.Debug
	logger.Info("authorized on telegram", zap.String("bot", api.Self.UserName))

	// --- Ledger, repos & usecases ---
	gateway := xrpl.NewGateway(xrpl.GatewayConfig{
		RPCURL:         cfg.XRPL.RPCURL,
		FaucetURL:      cfg.XRPL.FaucetURL,
		SubmitTimeout:  cfg.XRPL.SubmitTimeout,
		FundingTimeout: cfg.XRPL.FundingTimeout,
	}, logger)

	userRepo := repository.NewUserRepository(db)
	priceRepo := repository.NewPriceCacheRepository(db)
	transferRepo := repository.NewTransferRepository(db)

	walletUC := usecase.NewWalletUsecase(userRepo, gateway, vault, locker, pub, logger)
	transferUC := usecase.NewTransferUsecase(gateway, transferRepo, pub, logger)
	priceUC := usecase.NewPriceUsecase(priceRepo, price.NewClient(cfg.Price.APIURL, logger), cfg.Price.CacheTTL, logger)

	// --- Conversation & dispatcher ---
	machine := conversation.NewMachine(
		conversation.NewStore(),
		userRepo,
		gateway,
		vault,
		transferUC,
		domain.Drops(cfg.XRPL.ReserveDrops()),
		logger,
	)
	dispatcher := bot.NewDispatcher(walletUC, priceUC, transferUC, machine, cfg.XRPL.HistoryLimit, logger)
	telegram := handler.NewTelegramHandler(api, dispatcher, logger)

	// --- HTTP routes ---
	srvCtx, cancel := context.WithCancel(context.Background())
	deps := router.Deps{DB: db}
	if cfg.WebhookMode() {
		deps.Webhook = telegram.Webhook(srvCtx)
		deps.SetWebhook = func() (string, error) {
			return telegram.SetWebhook(cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret)
		}
		deps.WebhookSecret = cfg.Telegram.WebhookSecret
	}

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router.SetupRoutes(deps, logger),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		db:       db,
		rdb:      rdb,
		api:      api,
		telegram: telegram,
		logger:   logger,
		ctx:      srvCtx,
		cancel:   cancel,
	}, nil
}

// Start begins receiving updates and serves HTTP until Shutdown.
func (s *Server) Start() error {
	if s.cfg.WebhookMode() {
		if _, err := s.telegram.SetWebhook(s.cfg.Telegram.WebhookURL, s.cfg.Telegram.WebhookSecret); err != nil {
			s.logger.Error("webhook registration failed; retry via /set_webhook", zap.Error(err))
		}
	} else {
		go s.telegram.Poll(s.ctx, s.api)
	}

	s.logger.Info("http server starting", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops intake, drains in-flight updates and releases resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	err := s.httpServer.Shutdown(ctx)

	drained := make(chan struct{})
	go func() {
		s.telegram.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		s.logger.Warn("shutdown deadline reached with updates in flight")
	}

	closeAll(s.db, s.rdb)
	return err
}

func closeAll(db *pgxpool.Pool, rdb *redis.Client) {
	if rdb != nil {
		_ = rdb.Close()
	}
	db.Close()
}
