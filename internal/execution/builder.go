package execution

import (
	"errors"

	"prosper-investor/internal/model"
)

// BuildBatch 取前 min(可投笔数, 批次上限) 个标的，按标的编号去重（保留首次出现），每个标的生成一笔最小金额投标。
func BuildBatch(plan Plan) (Batch, error) {
	if !plan.BidAmount.IsPositive() {
		return Batch{}, errors.New("execution: 投标金额必须大于0")
	}

	limit := plan.MaxBatchSize
	if limit <= 0 {
		limit = DefaultMaxBatchSize
	}
	if plan.Affordable < limit {
		limit = plan.Affordable
	}
	if limit < 0 {
		limit = 0
	}

	window := plan.Listings
	if len(window) > limit {
		window = window[:limit]
	}

	batch := Batch{
		Bids:     make([]model.BidRequest, 0, len(window)),
		Listings: make([]model.Listing, 0, len(window)),
	}
	seen := make(map[int64]struct{}, len(window))
	for _, listing := range window {
		if _, dup := seen[listing.ListingNumber]; dup {
			continue
		}
		seen[listing.ListingNumber] = struct{}{}
		batch.Listings = append(batch.Listings, listing)
		batch.Bids = append(batch.Bids, model.BidRequest{
			ListingID: listing.ListingNumber,
			BidAmount: plan.BidAmount,
		})
	}

	return batch, nil
}
