package model

import "github.com/shopspring/decimal"

// OrderStatusInProgress 表示订单仍在处理中，其中的标的不可重复下单。
const OrderStatusInProgress = "IN_PROGRESS"

// BidRequest 为对单个标的的投标指令。
type BidRequest struct {
	ListingID int64
	BidAmount decimal.Decimal
	BidStatus string
}

// OpenOrder 为已提交的订单。
type OpenOrder struct {
	OrderID     string
	OrderDate   string
	OrderStatus string
	Source      string
	BidRequests []BidRequest
}

// InProgress 判断订单是否仍在处理。
func (o OpenOrder) InProgress() bool {
	return o.OrderStatus == OrderStatusInProgress
}

// OrderPage 为订单列表的一页。
type OrderPage struct {
	Results     []OpenOrder
	ResultCount int
	TotalCount  int
}

// OrderResponse 为下单接口的返回。
type OrderResponse struct {
	OrderID     string
	OrderStatus string
	OrderDate   string
	BidRequests []BidRequest
}
