package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"prosper-investor/internal/execution"
	"prosper-investor/internal/model"
)

// AccountSummary 并发获取账户与订单后发送账户概况通知。订单列表获取失败不影响通知发送。
func (a *App) AccountSummary(ctx context.Context) error {
	var summary model.AccountSummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		account, err := a.accounts.GetAccount(gctx)
		if err != nil {
			return fmt.Errorf("获取账户信息失败: %w", err)
		}
		summary.Account = account
		return nil
	})
	g.Go(func() error {
		orders, err := execution.FetchOpenOrders(gctx, a.orders, a.cfg.Investment.OrderListLimit)
		if err != nil {
			a.logger.Warn("获取订单列表失败，概况中省略处理中订单", zap.Error(err))
			summary.OrdersUnavailable = true
			return nil
		}
		summary.OpenOrders = orders
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	a.logger.Info("账户概况",
		zap.String("available_cash", summary.Account.AvailableCash().StringFixed(2)),
		zap.String("total_account_value", model.OrZero(summary.Account.TotalAccountValue).StringFixed(2)),
		zap.Int("orders", len(summary.OpenOrders)),
		zap.Int("in_progress_orders", len(summary.InProgressOrders())),
		zap.Int64s("pending_listings", summary.PendingListingIDs()),
		zap.Bool("orders_unavailable", summary.OrdersUnavailable),
	)

	a.notifier.NotifyAccountSummary(ctx, summary)
	return nil
}
