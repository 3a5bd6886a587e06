package app

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prosper-investor/internal/config"
	"prosper-investor/internal/filter"
	"prosper-investor/internal/model"
	"prosper-investor/internal/monitor"
	"prosper-investor/internal/prosper"
)

const testRules = `
filter-set-list:
  - name: core
    grades: "A,B"
    employment_length_over: 1
    inquiries_under: 2
    delinquencies_under: 0
    payment_income_ratio_under: 0.3
    loan_count_over: 0
`

func ptr[T any](v T) *T { return &v }

func goodListing(id int64, grade string) model.Listing {
	return model.Listing{
		ListingNumber:         id,
		ProsperRating:         ptr(grade),
		MonthsEmployed:        ptr(36.0),
		StatedMonthlyIncome:   ptr(5000.0),
		ListingMonthlyPayment: ptr(300.0),
		CreditBureau: &model.CreditBureau{
			Inquiries6Months:   ptr(0.0),
			DelinquentAccounts: ptr(0.0),
		},
	}
}

type fakeProsper struct {
	account     model.Account
	accountErr  error
	listings    []model.Listing
	listingsErr error
	filters     map[string]string
	listCalls   int
	orders      []model.OpenOrder
	ordersErr   error
	submitted   [][]model.BidRequest
	submitErr   error
	response    model.OrderResponse
}

func (f *fakeProsper) GetAccount(context.Context) (model.Account, error) {
	return f.account, f.accountErr
}

func (f *fakeProsper) GetListings(_ context.Context, filters map[string]string) (model.ListingPage, error) {
	f.listCalls++
	f.filters = filters
	if f.listingsErr != nil {
		return model.ListingPage{}, f.listingsErr
	}
	return model.ListingPage{Results: f.listings, ResultCount: len(f.listings), TotalCount: len(f.listings)}, nil
}

func (f *fakeProsper) GetOpenOrders(_ context.Context, limit, offset int) (model.OrderPage, error) {
	if f.ordersErr != nil {
		return model.OrderPage{}, f.ordersErr
	}
	end := min(offset+limit, len(f.orders))
	if offset >= end {
		return model.OrderPage{TotalCount: len(f.orders)}, nil
	}
	return model.OrderPage{Results: f.orders[offset:end], ResultCount: end - offset, TotalCount: len(f.orders)}, nil
}

func (f *fakeProsper) SubmitOrder(_ context.Context, bids []model.BidRequest) (model.OrderResponse, error) {
	f.submitted = append(f.submitted, bids)
	return f.response, f.submitErr
}

type notifiedOrder struct {
	listings []int64
	response *model.OrderResponse
}

type fakeNotifier struct {
	orders    []notifiedOrder
	errors    []string
	summaries []model.AccountSummary
}

func (f *fakeNotifier) NotifyOrder(_ context.Context, _ model.Account, listings []model.Listing, response *model.OrderResponse) {
	f.orders = append(f.orders, notifiedOrder{listings: listingIDs(listings), response: response})
}

func (f *fakeNotifier) NotifyError(_ context.Context, message string) {
	f.errors = append(f.errors, message)
}

func (f *fakeNotifier) NotifyAccountSummary(_ context.Context, summary model.AccountSummary) {
	f.summaries = append(f.summaries, summary)
}

type recordingJournal struct {
	nopJournal
	outcomes []string
	orders   []monitor.OrderPayload
	errs     []string
}

func (r *recordingJournal) RecordOutcome(_ context.Context, _ string, p monitor.OutcomePayload) {
	r.outcomes = append(r.outcomes, p.Outcome)
}

func (r *recordingJournal) RecordOrder(_ context.Context, _ string, p monitor.OrderPayload) {
	r.orders = append(r.orders, p)
}

func (r *recordingJournal) RecordError(_ context.Context, _, msg string, _ error, _ map[string]interface{}) {
	r.errs = append(r.errs, msg)
}

type harness struct {
	orch     *Orchestrator
	prosper  *fakeProsper
	notifier *fakeNotifier
	journal  *recordingJournal
}

func newHarness(t *testing.T, runMode string, cash int64) *harness {
	t.Helper()
	rules, err := filter.ParseRules([]byte(testRules))
	require.NoError(t, err)

	h := &harness{
		prosper: &fakeProsper{
			account:  model.Account{AvailableCashBalance: decimal.NewNullDecimal(decimal.NewFromInt(cash))},
			response: model.OrderResponse{OrderID: "o-1", OrderStatus: model.OrderStatusInProgress},
		},
		notifier: &fakeNotifier{},
		journal:  &recordingJournal{},
	}
	h.orch = NewOrchestrator(OrchestratorConfig{
		RunMode:       runMode,
		MinimumAmount: decimal.NewFromInt(25),
		GlobalFilters: map[string]string{"listing_category_id": "1"},
		OrderPageSize: 2,
	}, filter.NewSelector(rules, nil), h.prosper, h.prosper, h.prosper, h.notifier, h.journal, nil)
	h.orch.newRunID = func() string { return "run-test" }
	return h
}

func TestBuyNotes_InsufficientCashInProd(t *testing.T) {
	h := newHarness(t, config.RunModeProd, 10)

	res, err := h.orch.BuyNotes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeInsufficientCash, res.Outcome)
	assert.Equal(t, "run-test", res.RunID)
	assert.Zero(t, h.prosper.listCalls)
	assert.Empty(t, h.notifier.orders)
	assert.Equal(t, []string{"insufficient_cash"}, h.journal.outcomes)
}

func TestBuyNotes_TestModeIgnoresCashGate(t *testing.T) {
	h := newHarness(t, config.RunModeTest, 10)
	h.prosper.listings = []model.Listing{goodListing(1, "A")}

	res, err := h.orch.BuyNotes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, h.prosper.listCalls)
	assert.Equal(t, OutcomeNothingToOrder, res.Outcome)
	assert.Equal(t, []int64{1}, listingIDs(res.Selected))
}

func TestBuyNotes_DryRunInTestMode(t *testing.T) {
	h := newHarness(t, config.RunModeTest, 130)
	h.prosper.listings = []model.Listing{goodListing(1, "A"), goodListing(2, "C"), goodListing(4, "B")}

	res, err := h.orch.BuyNotes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDryRun, res.Outcome)
	assert.Empty(t, h.prosper.submitted)
	require.Len(t, h.notifier.orders, 1)
	assert.Equal(t, []int64{1, 4}, h.notifier.orders[0].listings)
	assert.Nil(t, h.notifier.orders[0].response)
	require.Len(t, h.journal.orders, 1)
	assert.False(t, h.journal.orders[0].Executed)
	assert.Equal(t, "1", h.prosper.filters["listing_category_id"])
}

func TestBuyNotes_SubmitsInProd(t *testing.T) {
	h := newHarness(t, config.RunModeProd, 60)
	h.prosper.listings = []model.Listing{goodListing(1, "A"), goodListing(2, "A"), goodListing(3, "B"), goodListing(4, "B")}
	h.prosper.orders = []model.OpenOrder{
		{OrderStatus: model.OrderStatusInProgress, BidRequests: []model.BidRequest{{ListingID: 2}}},
		{OrderStatus: "COMPLETED", BidRequests: []model.BidRequest{{ListingID: 1}}},
		{OrderStatus: model.OrderStatusInProgress, BidRequests: []model.BidRequest{{ListingID: 99}}},
	}

	res, err := h.orch.BuyNotes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmitted, res.Outcome)
	assert.Equal(t, 2, res.Affordable)

	require.Len(t, h.prosper.submitted, 1)
	bids := h.prosper.submitted[0]
	require.Len(t, bids, 2)
	assert.Equal(t, int64(1), bids[0].ListingID)
	assert.Equal(t, int64(3), bids[1].ListingID)
	for _, b := range bids {
		assert.True(t, b.BidAmount.Equal(decimal.NewFromInt(25)))
	}

	require.Len(t, h.notifier.orders, 1)
	assert.Equal(t, []int64{1, 3}, h.notifier.orders[0].listings)
	require.NotNil(t, h.notifier.orders[0].response)
	assert.Equal(t, "o-1", h.notifier.orders[0].response.OrderID)
	assert.True(t, h.journal.orders[0].Executed)
	assert.Equal(t, []string{"submitted"}, h.journal.outcomes)
}

func TestBuyNotes_DuplicateMatchesSubmittedOnce(t *testing.T) {
	rules, err := filter.ParseRules([]byte(testRules + `
  - name: second
    grades: "A"
    employment_length_over: 0
    inquiries_under: 5
    delinquencies_under: 1
    payment_income_ratio_under: 0.5
    loan_count_over: 0
`))
	require.NoError(t, err)

	h := newHarness(t, config.RunModeProd, 1000)
	h.orch.selector = filter.NewSelector(rules, nil)
	h.prosper.listings = []model.Listing{goodListing(1, "A"), goodListing(2, "B")}

	res, err := h.orch.BuyNotes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 1}, listingIDs(res.Selected))
	assert.Equal(t, []int64{1, 2}, listingIDs(res.Batch.Listings))
	require.Len(t, h.prosper.submitted, 1)
	assert.Len(t, h.prosper.submitted[0], 2)
}

func TestBuyNotes_NoOpOutcomes(t *testing.T) {
	t.Run("no listings", func(t *testing.T) {
		h := newHarness(t, config.RunModeProd, 100)
		res, err := h.orch.BuyNotes(context.Background())
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoListings, res.Outcome)
	})

	t.Run("no matches", func(t *testing.T) {
		h := newHarness(t, config.RunModeProd, 100)
		h.prosper.listings = []model.Listing{goodListing(1, "E")}
		res, err := h.orch.BuyNotes(context.Background())
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoMatches, res.Outcome)
	})

	t.Run("nothing to order", func(t *testing.T) {
		h := newHarness(t, config.RunModeProd, 100)
		h.prosper.listings = []model.Listing{goodListing(1, "A")}
		h.prosper.orders = []model.OpenOrder{{OrderStatus: model.OrderStatusInProgress, BidRequests: []model.BidRequest{{ListingID: 1}}}}
		res, err := h.orch.BuyNotes(context.Background())
		require.NoError(t, err)
		assert.Equal(t, OutcomeNothingToOrder, res.Outcome)
		assert.Empty(t, h.prosper.submitted)
	})

	t.Run("unknown run mode skips", func(t *testing.T) {
		h := newHarness(t, "staging", 100)
		h.prosper.listings = []model.Listing{goodListing(1, "A")}
		res, err := h.orch.BuyNotes(context.Background())
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, res.Outcome)
		assert.Empty(t, h.prosper.submitted)
		assert.Empty(t, h.notifier.orders)
	})
}

func TestBuyNotes_PropagatesCollaboratorErrors(t *testing.T) {
	upstream := &prosper.UpstreamError{Op: "get_orders", StatusCode: 500}

	t.Run("account", func(t *testing.T) {
		h := newHarness(t, config.RunModeProd, 100)
		h.prosper.accountErr = upstream
		_, err := h.orch.BuyNotes(context.Background())
		assert.Same(t, upstream, err)
		assert.Zero(t, h.prosper.listCalls)
	})

	t.Run("orders", func(t *testing.T) {
		h := newHarness(t, config.RunModeProd, 100)
		h.prosper.listings = []model.Listing{goodListing(1, "A")}
		h.prosper.ordersErr = upstream
		_, err := h.orch.BuyNotes(context.Background())
		assert.Same(t, upstream, err)
		assert.Empty(t, h.prosper.submitted)
		assert.Len(t, h.journal.errs, 1)
	})

	t.Run("submit", func(t *testing.T) {
		h := newHarness(t, config.RunModeProd, 100)
		h.prosper.listings = []model.Listing{goodListing(1, "A")}
		h.prosper.submitErr = upstream
		_, err := h.orch.BuyNotes(context.Background())
		assert.Same(t, upstream, err)
		assert.Empty(t, h.notifier.orders)
		assert.Empty(t, h.journal.outcomes)
	})
}
