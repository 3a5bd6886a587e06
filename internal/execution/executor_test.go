package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prosper-investor/internal/model"
)

func TestExecutorExecute_SubmitsSingleOrder(t *testing.T) {
	batch, err := BuildBatch(Plan{
		Listings:   makeListings(1, 2, 3),
		Affordable: 5,
		BidAmount:  decimal.NewFromInt(25),
	})
	require.NoError(t, err)

	client := &mockOrderClient{resp: model.OrderResponse{OrderID: "ord-1", OrderStatus: "IN_PROGRESS"}}
	exec := NewExecutor(client, nil)

	result, err := exec.Execute(context.Background(), batch)
	require.NoError(t, err)
	assert.True(t, result.Executed)
	require.NotNil(t, result.Response)
	assert.Equal(t, "ord-1", result.Response.OrderID)

	require.Len(t, client.calls, 1, "batch must be submitted as one request")
	assert.Equal(t, []int64{1, 2, 3}, bidIDs(client.calls[0]))
	assert.True(t, batch.Amount().Equal(decimal.NewFromInt(75)))
}

func TestExecutorExecute_PropagatesError(t *testing.T) {
	boom := errors.New("upstream 500")
	client := &mockOrderClient{err: boom}
	exec := NewExecutor(client, nil)

	batch, err := BuildBatch(Plan{Listings: makeListings(9), Affordable: 1, BidAmount: decimal.NewFromInt(25)})
	require.NoError(t, err)

	result, err := exec.Execute(context.Background(), batch)
	assert.ErrorIs(t, err, boom)
	assert.False(t, result.Executed)
	assert.Len(t, client.calls, 1)
}

func TestExecutorExecute_EmptyBatchDoesNotSubmit(t *testing.T) {
	client := &mockOrderClient{}
	result, err := NewExecutor(client, nil).Execute(context.Background(), Batch{})
	require.NoError(t, err)
	assert.False(t, result.Executed)
	assert.Empty(t, client.calls)
}

func TestSimulatedExecutor_NeverSubmits(t *testing.T) {
	var trader Trader = NewSimulatedExecutor(nil)
	batch, err := trader.BuildPlan(Plan{Listings: makeListings(1, 2), Affordable: 2, BidAmount: decimal.NewFromInt(25)})
	require.NoError(t, err)

	result, err := trader.Execute(context.Background(), batch)
	require.NoError(t, err)
	assert.False(t, result.Executed)
	assert.Nil(t, result.Response)
	assert.Len(t, result.Batch.Bids, 2)
}

type mockOrderClient struct {
	calls [][]model.BidRequest
	resp  model.OrderResponse
	err   error
}

func (m *mockOrderClient) SubmitOrder(_ context.Context, bids []model.BidRequest) (model.OrderResponse, error) {
	m.calls = append(m.calls, bids)
	if m.err != nil {
		return model.OrderResponse{}, m.err
	}
	return m.resp, nil
}

func makeListings(ids ...int64) []model.Listing {
	out := make([]model.Listing, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Listing{ListingNumber: id})
	}
	return out
}

func listingNumbers(listings []model.Listing) []int64 {
	out := make([]int64, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ListingNumber)
	}
	return out
}

func bidIDs(bids []model.BidRequest) []int64 {
	out := make([]int64, 0, len(bids))
	for _, b := range bids {
		out = append(out, b.ListingID)
	}
	return out
}
