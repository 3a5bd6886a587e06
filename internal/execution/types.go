package execution

import (
	"time"

	"github.com/shopspring/decimal"

	"prosper-investor/internal/model"
)

// DefaultMaxBatchSize 为下单接口单次允许的最大投标数。
const DefaultMaxBatchSize = 100

// Plan 描述一次批量投标的输入。
type Plan struct {
	Listings     []model.Listing
	Affordable   int
	BidAmount    decimal.Decimal
	MaxBatchSize int
}

// Batch 为去重截断后的下单批次，Listings 与 Bids 一一对应。
type Batch struct {
	Bids     []model.BidRequest
	Listings []model.Listing
}

// Amount 返回批次总金额。
func (b Batch) Amount() decimal.Decimal {
	total := decimal.Zero
	for _, bid := range b.Bids {
		total = total.Add(bid.BidAmount)
	}
	return total
}

// Result 为执行结果摘要。
type Result struct {
	Batch         Batch
	Executed      bool
	Response      *model.OrderResponse
	ExecutionTime time.Time
	Notes         []string
}
