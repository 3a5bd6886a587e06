package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"prosper-investor/internal/config"
	"prosper-investor/internal/filter"
	"prosper-investor/internal/monitor"
	"prosper-investor/internal/notify"
	"prosper-investor/internal/prosper"
	"prosper-investor/internal/store"
)

// 事件类型。
const (
	EventBuyNotes       = "buy_notes"
	EventAccountSummary = "account_summary"
)

// ErrUnknownEvent 表示收到无法识别的事件。
var ErrUnknownEvent = errors.New("unknown event type")

// App 聚合核心依赖并分发事件。
type App struct {
	cfg          *config.Config
	logger       *zap.Logger
	orchestrator *Orchestrator
	accounts     AccountProvider
	orders       OrderProvider
	notifier     Notifier
	monitor      *monitor.Service
}

// New 根据配置装配全部依赖。过滤规则在任何网络调用之前加载并校验。
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, st *store.Store) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rules, err := filter.LoadRules(cfg.Investment.FilterSetPath)
	if err != nil {
		return nil, err
	}
	logger.Info("过滤规则已加载", zap.Int("count", len(rules)), zap.String("path", cfg.Investment.FilterSetPath))

	client, err := prosper.NewClient(cfg.Prosper, logger.Named("prosper"))
	if err != nil {
		return nil, fmt.Errorf("初始化 Prosper 客户端失败: %w", err)
	}

	var mailer notify.Mailer
	if cfg.Notification.Gmail.Enabled() {
		gm, err := notify.NewGmailMailer(ctx, cfg.Notification.Gmail)
		if err != nil {
			return nil, err
		}
		mailer = gm
	}
	notifier := notify.NewService(cfg.Notification, decimal.NewFromFloat(cfg.Investment.MinimumAmount), mailer, logger.Named("notify"))

	var journal Journal
	var monitorSvc *monitor.Service
	if st != nil {
		monitorSvc, err = monitor.NewService(st, logger.Named("monitor"))
		if err != nil {
			return nil, fmt.Errorf("初始化监控服务失败: %w", err)
		}
		journal = monitorSvc
	}

	orch := NewOrchestrator(
		orchestratorConfigFrom(cfg),
		filter.NewSelector(rules, logger.Named("filter")),
		client, client, client,
		notifier, journal, logger,
	)

	return &App{
		cfg:          cfg,
		logger:       logger,
		orchestrator: orch,
		accounts:     client,
		orders:       client,
		notifier:     notifier,
		monitor:      monitorSvc,
	}, nil
}

// Monitor 返回运行日志服务，未配置存储时为空。
func (a *App) Monitor() *monitor.Service {
	return a.monitor
}

// RunEvent 处理单个事件。失败时先发送异常通知再返回错误。
func (a *App) RunEvent(ctx context.Context, event string) error {
	event = strings.TrimSpace(event)
	a.logger.Info("收到事件", zap.String("event", event), zap.String("run_mode", a.cfg.App.RunMode))

	var err error
	switch event {
	case EventBuyNotes:
		_, err = a.orchestrator.BuyNotes(ctx)
	case EventAccountSummary:
		err = a.AccountSummary(ctx)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}

	if err != nil {
		a.logger.Error("事件处理失败", zap.String("event", event), zap.Error(err))
		a.notifier.NotifyError(ctx, fmt.Sprintf("Error processing %s event: %+v", event, err))
		return err
	}
	return nil
}

// RejectEvent 处理无法识别事件名的推送消息，仅发送异常通知。
func (a *App) RejectEvent(ctx context.Context, reason error) {
	err := fmt.Errorf("%w: %v", ErrUnknownEvent, reason)
	a.logger.Error("事件处理失败", zap.Error(err))
	a.notifier.NotifyError(ctx, fmt.Sprintf("Error processing push message: %+v", err))
}
