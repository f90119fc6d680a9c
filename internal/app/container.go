package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/config"
	"github.com/Freeeeeet/supervision/internal/controller"
	"github.com/Freeeeeet/supervision/internal/controller/handlers"
	"github.com/Freeeeeet/supervision/internal/filestore"
	"github.com/Freeeeeet/supervision/internal/notify"
	"github.com/Freeeeeet/supervision/internal/repository"
	"github.com/Freeeeeet/supervision/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Container держит пул и собранные сервисы
type Container struct {
	Pool   *pgxpool.Pool
	Store  *repository.Store
	Logger *zap.Logger
	// Bot is nil when TELEGRAM_TOKEN is not set
	Bot *bot.Bot

	Shortlists   *service.ShortlistService
	Requests     *service.RequestService
	Activation   *service.ActivationService
	Cosupervisor *service.CosupervisorService
	Meetings     *service.MeetingService
	Unbinds      *service.UnbindService
	Abstracts    *service.AbstractService
}

// NewContainer подключается к базе и собирает зависимости сервисов
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	c, err := newContainer(pool, cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

func newContainer(pool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	store := repository.NewStore(pool)
	messenger := repository.NewMessenger(pool)
	workspaces := repository.NewWorkspaces(pool)

	files, err := filestore.NewDisk(cfg.StorageDir)
	if err != nil {
		return nil, err
	}

	var tg *bot.Bot
	notifier := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.TelegramToken != "" {
		tg, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return nil, fmt.Errorf("create telegram bot: %w", err)
		}
		notifier = append(notifier, notify.NewTelegramNotifier(tg, store.Users(), logger))
	}

	var scholarLab *service.ScholarLabTemplate
	if cfg.ScholarLabEnabled {
		scholarLab, err = service.DefaultScholarLabTemplate()
		if err != nil {
			return nil, err
		}
	}

	shortlists := service.NewShortlistService(store, logger)
	return &Container{
		Pool:         pool,
		Store:        store,
		Logger:       logger,
		Bot:          tg,
		Shortlists:   shortlists,
		Requests:     service.NewRequestService(store, messenger, files, shortlists, notifier, logger),
		Activation:   service.NewActivationService(store, workspaces, scholarLab, notifier, logger),
		Cosupervisor: service.NewCosupervisorService(store, messenger, workspaces, notifier, logger),
		Meetings:     service.NewMeetingService(store, notifier, logger),
		Unbinds:      service.NewUnbindService(store, notifier, logger),
		Abstracts:    service.NewAbstractService(store, files, logger),
	}, nil
}

// BotController собирает Telegram контроллер поверх сервисов
func (c *Container) BotController() (*controller.BotController, error) {
	if c.Bot == nil {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required to run the bot")
	}
	h := handlers.NewHandlers(c.Store, c.Requests, c.Shortlists, c.Unbinds, c.Logger)
	return controller.NewBotController(c.Bot, h, c.Logger), nil
}

// Close освобождает пул соединений
func (c *Container) Close() {
	c.Pool.Close()
}
