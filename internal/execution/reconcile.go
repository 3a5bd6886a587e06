package execution

import "prosper-investor/internal/model"

// Reconcile 剔除已出现在处理中订单里的标的，并按原顺序截断至可投笔数。
func Reconcile(candidates []model.Listing, openOrders []model.OpenOrder, affordable int) []model.Listing {
	ordered := inProgressListingIDs(openOrders)

	trimmed := make([]model.Listing, 0, len(candidates))
	for _, listing := range candidates {
		if _, exists := ordered[listing.ListingNumber]; exists {
			continue
		}
		trimmed = append(trimmed, listing)
	}

	if affordable < 0 {
		affordable = 0
	}
	if len(trimmed) > affordable {
		trimmed = trimmed[:affordable]
	}
	return trimmed
}

// RemovedByOpenOrders 返回因处理中订单被剔除的标的编号（保持候选顺序，去重）。
func RemovedByOpenOrders(candidates []model.Listing, openOrders []model.OpenOrder) []int64 {
	ordered := inProgressListingIDs(openOrders)
	removed := make([]int64, 0)
	seen := make(map[int64]struct{})
	for _, listing := range candidates {
		if _, exists := ordered[listing.ListingNumber]; !exists {
			continue
		}
		if _, dup := seen[listing.ListingNumber]; dup {
			continue
		}
		seen[listing.ListingNumber] = struct{}{}
		removed = append(removed, listing.ListingNumber)
	}
	return removed
}

func inProgressListingIDs(openOrders []model.OpenOrder) map[int64]struct{} {
	ids := make(map[int64]struct{})
	for _, order := range openOrders {
		if !order.InProgress() {
			continue
		}
		for _, bid := range order.BidRequests {
			ids[bid.ListingID] = struct{}{}
		}
	}
	return ids
}
