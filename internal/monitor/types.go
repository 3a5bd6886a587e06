package monitor

import (
	"time"

	"github.com/shopspring/decimal"

	"prosper-investor/internal/model"
)

// EventType 表示监控事件类型。
type EventType string

const (
	EventAccount        EventType = "account"
	EventSelection      EventType = "selection"
	EventReconciliation EventType = "reconciliation"
	EventOrder          EventType = "order"
	EventDryRun         EventType = "dry_run"
	EventOutcome        EventType = "outcome"
	EventError          EventType = "error"
)

// Event 封装通用监控事件，同一次运行的事件共享 RunID。
type Event struct {
	RunID     string      `json:"run_id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AccountPayload 记录账户现金与可投笔数。
type AccountPayload struct {
	AvailableCash decimal.Decimal `json:"available_cash"`
	MinimumAmount decimal.Decimal `json:"minimum_amount"`
	Affordable    int             `json:"affordable"`
}

// SelectionPayload 记录选标结果。
type SelectionPayload struct {
	ListingCount int     `json:"listing_count"`
	Selected     []int64 `json:"selected"`
}

// ReconciliationPayload 记录与进行中订单的对账结果。
type ReconciliationPayload struct {
	OpenOrders int     `json:"open_orders"`
	Removed    []int64 `json:"removed"`
	Remaining  []int64 `json:"remaining"`
}

// OrderPayload 记录投标批次，Response 在演练模式下为空。
type OrderPayload struct {
	ListingIDs []int64              `json:"listing_ids"`
	BidAmount  decimal.Decimal      `json:"bid_amount"`
	Total      decimal.Decimal      `json:"total"`
	Executed   bool                 `json:"executed"`
	Response   *model.OrderResponse `json:"response,omitempty"`
}

// OutcomePayload 记录一次运行的最终结果。
type OutcomePayload struct {
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// ErrorPayload 记录异常。
type ErrorPayload struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}
