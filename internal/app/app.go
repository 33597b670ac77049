package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ykvlv/daily-report-notifier/internal/config"
	"github.com/ykvlv/daily-report-notifier/internal/httpapi"
	"github.com/ykvlv/daily-report-notifier/internal/push"
	"github.com/ykvlv/daily-report-notifier/internal/scheduler"
	"github.com/ykvlv/daily-report-notifier/internal/store"
	"github.com/ykvlv/daily-report-notifier/internal/telegram"
	"github.com/ykvlv/daily-report-notifier/internal/tracker"
)

// App owns the process-wide handles: the store, the push gateway and the
// Telegram client. They are created once and injected into every component.
type App struct {
	cfg       config.Config
	log       *zap.Logger
	repo      *store.SQLiteRepo
	bot       *tgbotapi.BotAPI
	tracker   *tracker.Tracker
	scheduler *scheduler.Scheduler
	httpSrv   *http.Server
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	kinds, err := cfg.Kinds()
	if err != nil {
		return nil, err
	}

	repo, err := store.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	a := &App{cfg: cfg, log: log, repo: repo}

	var gw push.Gateway
	switch cfg.PushGateway {
	case "telegram":
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("telegram: %w", err)
		}
		bot.Debug = false
		a.bot = bot
		gw = push.NewTelegramGateway(bot, log, cfg.TelegramRPS)
	default:
		gw = push.NewLogGateway(log)
	}

	a.tracker = tracker.New(repo, gw, log, tracker.Options{
		Location:   cfg.Location(),
		Required:   kinds,
		BatchLimit: cfg.BatchLimit,
	})

	specs := cfg.CronSpecs()
	var jobs []scheduler.Job
	for _, name := range tracker.Jobs() {
		jobs = append(jobs, scheduler.Job{
			Name: string(name),
			Spec: specs[string(name)],
			Run:  a.jobRunner(name),
		})
	}
	a.scheduler, err = scheduler.New(log, cfg.Location(), jobs...)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	a.httpSrv = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(httpapi.NewHandler(a.tracker, repo, log)),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return a, nil
}

// Tracker exposes the flows for one-shot commands.
func (a *App) Tracker() *tracker.Tracker { return a.tracker }

// Close releases the store.
func (a *App) Close() error {
	return a.repo.Close()
}

func (a *App) jobRunner(name tracker.JobName) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := a.tracker.RunJob(ctx, name)
		return err
	}
}

// Run serves the HTTP triggers, the scheduler and, with the Telegram
// gateway, the bot until SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting daily-report-notifier",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("gateway", a.cfg.PushGateway),
		zap.String("tz_offset", a.cfg.TZOffset.Raw),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.log.Info("shutdown signal received")
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.httpSrv.Shutdown(shCtx); err != nil {
			a.log.Warn("http server shutdown error", zap.Error(err))
		}
		return nil
	})

	if a.cfg.SchedulerEnabled {
		g.Go(func() error {
			a.scheduler.Run(ctx)
			return nil
		})
	}

	if a.bot != nil {
		router := telegram.NewRouter(a.bot, a.log, a.repo, a.tracker)
		g.Go(func() error {
			a.pollTelegram(ctx, router)
			return nil
		})
	}

	err := g.Wait()
	if cerr := a.Close(); cerr != nil {
		a.log.Warn("store close error", zap.Error(cerr))
	}
	return err
}

func (a *App) pollTelegram(ctx context.Context, router *telegram.Router) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)
	defer a.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case upd := <-updCh:
			router.HandleUpdate(ctx, upd)
		}
	}
}
