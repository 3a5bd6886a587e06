package execution

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"prosper-investor/internal/model"
)

type orderClient interface {
	SubmitOrder(ctx context.Context, bids []model.BidRequest) (model.OrderResponse, error)
}

// Executor 将批次作为单个原子订单提交到平台，不拆分也不重试。
type Executor struct {
	client orderClient
	logger *zap.Logger
}

// NewExecutor 创建真实下单执行器。
func NewExecutor(client orderClient, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		client: client,
		logger: logger,
	}
}

// BuildPlan 根据计划生成下单批次。
func (e *Executor) BuildPlan(plan Plan) (Batch, error) {
	return BuildBatch(plan)
}

// Execute 提交批次。
func (e *Executor) Execute(ctx context.Context, batch Batch) (Result, error) {
	result := Result{
		Batch:         batch,
		ExecutionTime: time.Now().UTC(),
		Notes:         make([]string, 0),
	}

	if len(batch.Bids) == 0 {
		result.Notes = append(result.Notes, "批次为空，未提交订单")
		return result, nil
	}

	e.logger.Info("提交投标订单",
		zap.Int("bids", len(batch.Bids)),
		zap.String("amount", batch.Amount().StringFixed(2)),
	)

	resp, err := e.client.SubmitOrder(ctx, batch.Bids)
	if err != nil {
		result.Notes = append(result.Notes, fmt.Sprintf("下单失败: %v", err))
		return result, err
	}

	e.logger.Info("订单已提交",
		zap.String("order_id", resp.OrderID),
		zap.String("order_status", resp.OrderStatus),
	)

	result.Executed = true
	result.Response = &resp
	return result, nil
}

// SimulatedExecutor 在测试模式下只构建批次，不调用下单接口。
type SimulatedExecutor struct {
	logger *zap.Logger
}

// NewSimulatedExecutor 创建模拟执行器。
func NewSimulatedExecutor(logger *zap.Logger) *SimulatedExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulatedExecutor{logger: logger}
}

// BuildPlan 根据计划生成下单批次。
func (s *SimulatedExecutor) BuildPlan(plan Plan) (Batch, error) {
	return BuildBatch(plan)
}

// Execute 记录批次后返回未执行结果。
func (s *SimulatedExecutor) Execute(_ context.Context, batch Batch) (Result, error) {
	ids := make([]int64, 0, len(batch.Bids))
	for _, bid := range batch.Bids {
		ids = append(ids, bid.ListingID)
	}
	s.logger.Info("测试模式，不提交订单", zap.Int64s("listing_ids", ids))

	return Result{
		Batch:         batch,
		Executed:      false,
		ExecutionTime: time.Now().UTC(),
		Notes:         []string{"dry run"},
	}, nil
}
