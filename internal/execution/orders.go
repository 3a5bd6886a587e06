package execution

import (
	"context"

	"prosper-investor/internal/model"
)

// DefaultOrderPageSize 为订单列表默认分页大小。
const DefaultOrderPageSize = 25

type orderLister interface {
	GetOpenOrders(ctx context.Context, limit, offset int) (model.OrderPage, error)
}

// FetchOpenOrders 逐页拉取订单，直到累计条数达到总数或某页没有返回新记录。
func FetchOpenOrders(ctx context.Context, client orderLister, pageSize int) ([]model.OpenOrder, error) {
	if pageSize <= 0 {
		pageSize = DefaultOrderPageSize
	}

	orders := make([]model.OpenOrder, 0, pageSize)
	for {
		page, err := client.GetOpenOrders(ctx, pageSize, len(orders))
		if err != nil {
			return nil, err
		}
		if len(page.Results) == 0 {
			return orders, nil
		}
		orders = append(orders, page.Results...)
		if len(orders) >= page.TotalCount {
			return orders, nil
		}
	}
}
