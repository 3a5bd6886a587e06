package prosper

import (
	"github.com/shopspring/decimal"

	"prosper-investor/internal/model"
)

// 以下为平台 JSON 结构，数值字段均为指针：缺失即为缺失，不会被静默置 0。未知字段忽略。

type listingsResponse struct {
	Result      []wireListing `json:"result"`
	ResultCount int           `json:"result_count"`
	TotalCount  int           `json:"total_count"`
}

type wireListing struct {
	ListingNumber         *int64            `json:"listing_number"`
	ProsperRating         *string           `json:"prosper_rating"`
	ProsperScore          *int              `json:"prosper_score"`
	ListingAmount         *float64          `json:"listing_amount"`
	AmountRemaining       *float64          `json:"amount_remaining"`
	BorrowerRate          *float64          `json:"borrower_rate"`
	ListingTerm           *int              `json:"listing_term"`
	ListingMonthlyPayment *float64          `json:"listing_monthly_payment"`
	StatedMonthlyIncome   *float64          `json:"stated_monthly_income"`
	MonthsEmployed        *float64          `json:"months_employed"`
	IncomeRange           *int              `json:"income_range"`
	HasMortgage           *bool             `json:"has_mortgage"`
	ListingCategoryID     *int              `json:"listing_category_id"`
	ListingTitle          string            `json:"listing_title"`
	BorrowerState         string            `json:"borrower_state"`
	Occupation            string            `json:"occupation"`
	ListingStartDate      string            `json:"listing_start_date"`
	CreditBureau          *wireCreditBureau `json:"credit_bureau_values_transunion_indexed"`
}

type wireCreditBureau struct {
	CreditReportDate         string   `json:"credit_report_date"`
	Inquiries6Months         *float64 `json:"g980s_inquiries_in_the_last_6_months"`
	DelinquentAccounts       *float64 `json:"g218b_number_of_delinquent_accounts"`
	OpenAccounts             *float64 `json:"at02s_open_accounts"`
	PublicRecords            *float64 `json:"g093s_number_of_public_records"`
	AmountDelinquent         *float64 `json:"at57s_amount_delinquent"`
	BankcardUtilization      *float64 `json:"bc34s_bankcard_utilization"`
	MonthsSinceRecentInquiry *float64 `json:"g102s_months_since_most_recent_inquiry"`
	FICOScore                string   `json:"fico_score"`
}

type accountResponse struct {
	AvailableCashBalance              decimal.NullDecimal        `json:"available_cash_balance"`
	PendingInvestmentsPrimaryMarket   decimal.NullDecimal        `json:"pending_investments_primary_market"`
	PendingInvestmentsSecondaryMarket decimal.NullDecimal        `json:"pending_investments_secondary_market"`
	PendingQuickInvestOrders          decimal.NullDecimal        `json:"pending_quick_invest_orders"`
	TotalPrincipalReceivedOnActive    decimal.NullDecimal        `json:"total_principal_received_on_active_notes"`
	TotalAmountInvestedOnActive       decimal.NullDecimal        `json:"total_amount_invested_on_active_notes"`
	OutstandingPrincipalOnActive      decimal.NullDecimal        `json:"outstanding_principal_on_active_notes"`
	TotalAccountValue                 decimal.NullDecimal        `json:"total_account_value"`
	PendingDeposit                    decimal.NullDecimal        `json:"pending_deposit"`
	ExternalUserID                    string                     `json:"external_user_id"`
	InvestedNotes                     map[string]decimal.Decimal `json:"invested_notes"`
	PendingBids                       map[string]decimal.Decimal `json:"pending_bids"`
}

type wireBidRequest struct {
	ListingID *int64              `json:"listing_id"`
	BidAmount decimal.NullDecimal `json:"bid_amount"`
	BidStatus string              `json:"bid_status"`
}

type ordersResponse struct {
	Result      []wireOrder `json:"result"`
	ResultCount int         `json:"result_count"`
	TotalCount  int         `json:"total_count"`
}

type wireOrder struct {
	OrderID     string           `json:"order_id"`
	OrderDate   string           `json:"order_date"`
	OrderStatus string           `json:"order_status"`
	Source      string           `json:"source"`
	BidRequests []wireBidRequest `json:"bid_requests"`
}

type submitRequest struct {
	BidRequests []submitBid `json:"bid_requests"`
}

type submitBid struct {
	ListingID int64   `json:"listing_id"`
	BidAmount float64 `json:"bid_amount"`
}

func (w wireListing) toModel() (model.Listing, bool) {
	if w.ListingNumber == nil {
		return model.Listing{}, false
	}
	listing := model.Listing{
		ListingNumber:         *w.ListingNumber,
		ProsperRating:         w.ProsperRating,
		ProsperScore:          w.ProsperScore,
		ListingAmount:         w.ListingAmount,
		AmountRemaining:       w.AmountRemaining,
		BorrowerRate:          w.BorrowerRate,
		ListingTerm:           w.ListingTerm,
		ListingMonthlyPayment: w.ListingMonthlyPayment,
		StatedMonthlyIncome:   w.StatedMonthlyIncome,
		MonthsEmployed:        w.MonthsEmployed,
		IncomeRange:           w.IncomeRange,
		HasMortgage:           w.HasMortgage,
		ListingCategoryID:     w.ListingCategoryID,
		ListingTitle:          w.ListingTitle,
		BorrowerState:         w.BorrowerState,
		Occupation:            w.Occupation,
		ListingStartDate:      w.ListingStartDate,
	}
	if w.CreditBureau != nil {
		listing.CreditBureau = &model.CreditBureau{
			CreditReportDate:         w.CreditBureau.CreditReportDate,
			Inquiries6Months:         w.CreditBureau.Inquiries6Months,
			DelinquentAccounts:       w.CreditBureau.DelinquentAccounts,
			OpenAccounts:             w.CreditBureau.OpenAccounts,
			PublicRecords:            w.CreditBureau.PublicRecords,
			AmountDelinquent:         w.CreditBureau.AmountDelinquent,
			BankcardUtilization:      w.CreditBureau.BankcardUtilization,
			MonthsSinceRecentInquiry: w.CreditBureau.MonthsSinceRecentInquiry,
			FICOScore:                w.CreditBureau.FICOScore,
		}
	}
	return listing, true
}

func (a accountResponse) toModel() model.Account {
	return model.Account{
		AvailableCashBalance:              a.AvailableCashBalance,
		PendingInvestmentsPrimaryMarket:   a.PendingInvestmentsPrimaryMarket,
		PendingInvestmentsSecondaryMarket: a.PendingInvestmentsSecondaryMarket,
		PendingQuickInvestOrders:          a.PendingQuickInvestOrders,
		TotalPrincipalReceivedOnActive:    a.TotalPrincipalReceivedOnActive,
		TotalAmountInvestedOnActive:       a.TotalAmountInvestedOnActive,
		OutstandingPrincipalOnActive:      a.OutstandingPrincipalOnActive,
		TotalAccountValue:                 a.TotalAccountValue,
		PendingDeposit:                    a.PendingDeposit,
		ExternalUserID:                    a.ExternalUserID,
		InvestedNotes:                     a.InvestedNotes,
		PendingBids:                       a.PendingBids,
	}
}

func toModelBids(wire []wireBidRequest) []model.BidRequest {
	bids := make([]model.BidRequest, 0, len(wire))
	for _, b := range wire {
		if b.ListingID == nil {
			continue
		}
		bids = append(bids, model.BidRequest{
			ListingID: *b.ListingID,
			BidAmount: model.OrZero(b.BidAmount),
			BidStatus: b.BidStatus,
		})
	}
	return bids
}

func (o wireOrder) toModel() model.OpenOrder {
	return model.OpenOrder{
		OrderID:     o.OrderID,
		OrderDate:   o.OrderDate,
		OrderStatus: o.OrderStatus,
		Source:      o.Source,
		BidRequests: toModelBids(o.BidRequests),
	}
}

func newSubmitRequest(bids []model.BidRequest) submitRequest {
	req := submitRequest{BidRequests: make([]submitBid, 0, len(bids))}
	for _, b := range bids {
		req.BidRequests = append(req.BidRequests, submitBid{
			ListingID: b.ListingID,
			BidAmount: b.BidAmount.InexactFloat64(),
		})
	}
	return req
}
