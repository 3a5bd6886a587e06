package app

import (
	"context"
	"fmt"
	"maps"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"prosper-investor/internal/config"
	"prosper-investor/internal/execution"
	"prosper-investor/internal/filter"
	"prosper-investor/internal/model"
	"prosper-investor/internal/monitor"
)

// AccountProvider 提供账户概况。
type AccountProvider interface {
	GetAccount(ctx context.Context) (model.Account, error)
}

// ListingProvider 提供按全局条件过滤后的可投标的。
type ListingProvider interface {
	GetListings(ctx context.Context, filters map[string]string) (model.ListingPage, error)
}

// OrderProvider 提供订单查询与提交。
type OrderProvider interface {
	GetOpenOrders(ctx context.Context, limit, offset int) (model.OrderPage, error)
	SubmitOrder(ctx context.Context, bids []model.BidRequest) (model.OrderResponse, error)
}

// Notifier 发送通知，自身吞掉发送错误。
type Notifier interface {
	NotifyOrder(ctx context.Context, account model.Account, listings []model.Listing, response *model.OrderResponse)
	NotifyError(ctx context.Context, message string)
	NotifyAccountSummary(ctx context.Context, summary model.AccountSummary)
}

// Journal 记录运行事件，写入失败不影响流程。
type Journal interface {
	RecordAccount(ctx context.Context, runID string, payload monitor.AccountPayload)
	RecordSelection(ctx context.Context, runID string, payload monitor.SelectionPayload)
	RecordReconciliation(ctx context.Context, runID string, payload monitor.ReconciliationPayload)
	RecordOrder(ctx context.Context, runID string, payload monitor.OrderPayload)
	RecordOutcome(ctx context.Context, runID string, payload monitor.OutcomePayload)
	RecordError(ctx context.Context, runID, msg string, err error, ctxMap map[string]interface{})
}

// Outcome 为一次投资运行的结果。除 Submitted 与 DryRun 外均为“无操作”的成功结束。
type Outcome string

const (
	OutcomeInsufficientCash Outcome = "insufficient_cash"
	OutcomeNoListings       Outcome = "no_listings"
	OutcomeNoMatches        Outcome = "no_matches"
	OutcomeNothingToOrder   Outcome = "nothing_to_order"
	OutcomeSubmitted        Outcome = "submitted"
	OutcomeDryRun           Outcome = "dry_run"
	OutcomeSkipped          Outcome = "skipped"
)

// RunResult 汇总一次运行。
type RunResult struct {
	RunID      string
	Outcome    Outcome
	Affordable int
	Selected   []model.Listing
	Trimmed    []model.Listing
	Batch      execution.Batch
	Response   *model.OrderResponse
}

// OrchestratorConfig 为投资流程的运行参数。
type OrchestratorConfig struct {
	RunMode       string
	MinimumAmount decimal.Decimal
	GlobalFilters map[string]string
	OrderPageSize int
	MaxBatchSize  int
}

func orchestratorConfigFrom(cfg *config.Config) OrchestratorConfig {
	return OrchestratorConfig{
		RunMode:       cfg.App.RunMode,
		MinimumAmount: decimal.NewFromFloat(cfg.Investment.MinimumAmount),
		GlobalFilters: cfg.Investment.GlobalFilters,
		OrderPageSize: cfg.Investment.OrderListLimit,
		MaxBatchSize:  cfg.Investment.MaxBatchSize,
	}
}

// Orchestrator 串联账户、选标、对账与下单。运行之间不共享可变状态。
type Orchestrator struct {
	cfg      OrchestratorConfig
	selector *filter.Selector
	accounts AccountProvider
	listings ListingProvider
	orders   OrderProvider
	notifier Notifier
	journal  Journal
	logger   *zap.Logger
	newRunID func() string
}

// NewOrchestrator 创建投资流程编排器，journal 可为空。
func NewOrchestrator(cfg OrchestratorConfig, selector *filter.Selector, accounts AccountProvider, listings ListingProvider,
	orders OrderProvider, notifier Notifier, journal Journal, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if journal == nil {
		journal = nopJournal{}
	}
	if cfg.OrderPageSize <= 0 {
		cfg.OrderPageSize = execution.DefaultOrderPageSize
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = execution.DefaultMaxBatchSize
	}
	cfg.GlobalFilters = maps.Clone(cfg.GlobalFilters)

	return &Orchestrator{
		cfg:      cfg,
		selector: selector,
		accounts: accounts,
		listings: listings,
		orders:   orders,
		notifier: notifier,
		journal:  journal,
		logger:   logger,
		newRunID: uuid.NewString,
	}
}

// BuyNotes 执行一次完整的投资流程。任何协作方错误都会中止流程并原样返回。
func (o *Orchestrator) BuyNotes(ctx context.Context) (RunResult, error) {
	result := RunResult{RunID: o.newRunID()}
	logger := o.logger.With(zap.String("run_id", result.RunID), zap.String("run_mode", o.cfg.RunMode))

	fail := func(msg string, err error) (RunResult, error) {
		logger.Error(msg, zap.Error(err))
		o.journal.RecordError(ctx, result.RunID, msg, err, nil)
		return result, err
	}
	finish := func(outcome Outcome, detail string) (RunResult, error) {
		result.Outcome = outcome
		logger.Info("投资流程结束", zap.String("outcome", string(outcome)), zap.String("detail", detail))
		o.journal.RecordOutcome(ctx, result.RunID, monitor.OutcomePayload{Outcome: string(outcome), Detail: detail})
		return result, nil
	}

	logger.Info("获取账户信息")
	account, err := o.accounts.GetAccount(ctx)
	if err != nil {
		return fail("获取账户信息失败", err)
	}

	cash := account.AvailableCash()
	result.Affordable = model.AffordabilityCap(cash, o.cfg.MinimumAmount)
	logger.Info("账户可用资金",
		zap.String("available_cash", cash.StringFixed(2)),
		zap.Int("affordable", result.Affordable),
	)
	o.journal.RecordAccount(ctx, result.RunID, monitor.AccountPayload{
		AvailableCash: cash,
		MinimumAmount: o.cfg.MinimumAmount,
		Affordable:    result.Affordable,
	})

	if o.cfg.RunMode != config.RunModeTest && cash.LessThan(o.cfg.MinimumAmount) {
		return finish(OutcomeInsufficientCash, "available cash below minimum investment")
	}

	page, err := o.listings.GetListings(ctx, o.cfg.GlobalFilters)
	if err != nil {
		return fail("获取标的列表失败", err)
	}
	logger.Info("已获取标的", zap.Int("count", len(page.Results)), zap.Int("total", page.TotalCount))
	if len(page.Results) == 0 {
		return finish(OutcomeNoListings, "no listings returned")
	}

	result.Selected = o.selector.Select(page.Results, result.Affordable)
	o.journal.RecordSelection(ctx, result.RunID, monitor.SelectionPayload{
		ListingCount: len(page.Results),
		Selected:     listingIDs(result.Selected),
	})
	if len(result.Selected) == 0 {
		return finish(OutcomeNoMatches, "no listings matched the filter sets")
	}

	openOrders, err := execution.FetchOpenOrders(ctx, o.orders, o.cfg.OrderPageSize)
	if err != nil {
		return fail("获取订单列表失败", err)
	}
	result.Trimmed = execution.Reconcile(result.Selected, openOrders, result.Affordable)
	removed := execution.RemovedByOpenOrders(result.Selected, openOrders)
	if len(removed) > 0 {
		logger.Info("剔除已在处理中订单内的标的", zap.Int64s("listing_ids", removed))
	}
	o.journal.RecordReconciliation(ctx, result.RunID, monitor.ReconciliationPayload{
		OpenOrders: len(openOrders),
		Removed:    removed,
		Remaining:  listingIDs(result.Trimmed),
	})
	if len(result.Trimmed) == 0 {
		return finish(OutcomeNothingToOrder, "no listings left after reconciliation")
	}

	trader, outcome, ok := o.traderFor(logger)
	if !ok {
		return finish(OutcomeSkipped, fmt.Sprintf("run mode %q places no orders", o.cfg.RunMode))
	}

	batch, err := trader.BuildPlan(execution.Plan{
		Listings:     result.Trimmed,
		Affordable:   result.Affordable,
		BidAmount:    o.cfg.MinimumAmount,
		MaxBatchSize: o.cfg.MaxBatchSize,
	})
	if err != nil {
		return fail("生成投标批次失败", err)
	}
	result.Batch = batch

	exec, err := trader.Execute(ctx, batch)
	if err != nil {
		return fail("提交订单失败", err)
	}
	result.Response = exec.Response

	o.journal.RecordOrder(ctx, result.RunID, monitor.OrderPayload{
		ListingIDs: listingIDs(batch.Listings),
		BidAmount:  o.cfg.MinimumAmount,
		Total:      batch.Amount(),
		Executed:   exec.Executed,
		Response:   exec.Response,
	})
	o.notifier.NotifyOrder(ctx, account, batch.Listings, exec.Response)

	return finish(outcome, fmt.Sprintf("%d bids", len(batch.Bids)))
}

func (o *Orchestrator) traderFor(logger *zap.Logger) (execution.Trader, Outcome, bool) {
	switch o.cfg.RunMode {
	case config.RunModeProd:
		return execution.NewExecutor(o.orders, logger), OutcomeSubmitted, true
	case config.RunModeTest:
		return execution.NewSimulatedExecutor(logger), OutcomeDryRun, true
	default:
		return nil, OutcomeSkipped, false
	}
}

func listingIDs(listings []model.Listing) []int64 {
	ids := make([]int64, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ListingNumber)
	}
	return ids
}

type nopJournal struct{}

func (nopJournal) RecordAccount(context.Context, string, monitor.AccountPayload)               {}
func (nopJournal) RecordSelection(context.Context, string, monitor.SelectionPayload)           {}
func (nopJournal) RecordReconciliation(context.Context, string, monitor.ReconciliationPayload) {}
func (nopJournal) RecordOrder(context.Context, string, monitor.OrderPayload)                   {}
func (nopJournal) RecordOutcome(context.Context, string, monitor.OutcomePayload)               {}
func (nopJournal) RecordError(context.Context, string, string, error, map[string]interface{})  {}
