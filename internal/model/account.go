package model

import "github.com/shopspring/decimal"

// Account 为投资账户概况，金额字段缺失时保持为 null。
type Account struct {
	AvailableCashBalance              decimal.NullDecimal
	PendingInvestmentsPrimaryMarket   decimal.NullDecimal
	PendingInvestmentsSecondaryMarket decimal.NullDecimal
	PendingQuickInvestOrders          decimal.NullDecimal
	TotalPrincipalReceivedOnActive    decimal.NullDecimal
	TotalAmountInvestedOnActive       decimal.NullDecimal
	OutstandingPrincipalOnActive      decimal.NullDecimal
	TotalAccountValue                 decimal.NullDecimal
	PendingDeposit                    decimal.NullDecimal
	ExternalUserID                    string
	InvestedNotes                     map[string]decimal.Decimal
	PendingBids                       map[string]decimal.Decimal
}

// AvailableCash 返回可用现金，缺失视为 0。
func (a Account) AvailableCash() decimal.Decimal {
	return OrZero(a.AvailableCashBalance)
}

// OrZero 将缺失金额折算为 0，仅用于展示与上限计算。
func OrZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}

// AffordabilityCap 计算可用现金支持的最小额投资笔数，向下取整且不为负。
func AffordabilityCap(cash, minimum decimal.Decimal) int {
	if !minimum.IsPositive() || !cash.IsPositive() {
		return 0
	}
	return int(cash.Div(minimum).Floor().IntPart())
}

// AccountSummary 为账户概况通知的内容。OrdersUnavailable 表示订单列表获取失败，此时 OpenOrders 为空。
type AccountSummary struct {
	Account           Account
	OpenOrders        []OpenOrder
	OrdersUnavailable bool
}

// InProgressOrders 返回仍在处理中的订单，保持原有顺序。
func (s AccountSummary) InProgressOrders() []OpenOrder {
	var out []OpenOrder
	for _, o := range s.OpenOrders {
		if o.InProgress() {
			out = append(out, o)
		}
	}
	return out
}

// PendingListingIDs 返回处理中订单涉及的标的编号，按首次出现顺序去重。
func (s AccountSummary) PendingListingIDs() []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, o := range s.InProgressOrders() {
		for _, bid := range o.BidRequests {
			if _, ok := seen[bid.ListingID]; ok {
				continue
			}
			seen[bid.ListingID] = struct{}{}
			ids = append(ids, bid.ListingID)
		}
	}
	return ids
}
