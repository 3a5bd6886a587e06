package prosper

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"prosper-investor/internal/config"
	"prosper-investor/internal/model"
)

const (
	tokenPath    = "/v1/security/oauth/token"
	accountPath  = "/v1/accounts/prosper/"
	listingsPath = "/listingsvc/v2/listings/"
	ordersPath   = "/v1/orders/"
)

// Client 负责与 Prosper REST 接口交互。令牌过期（401/403）时重新认证并重试一次，除此之外不做重试。
type Client struct {
	cfg    config.ProsperConfig
	logger *zap.Logger
	http   *resty.Client
	oauth  *oauth2.Config

	tokenMu sync.Mutex
	token   *oauth2.Token
}

// NewClient 构造 Prosper 客户端。
func NewClient(cfg config.ProsperConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("prosper: base_url 不能为空")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		cfg:    cfg,
		logger: logger,
		http:   httpClient,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  baseURL + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}, nil
}

// GetAccount 获取账户概况。
func (c *Client) GetAccount(ctx context.Context) (model.Account, error) {
	var out accountResponse
	if err := c.getJSON(ctx, "get_account", accountPath, nil, &out); err != nil {
		return model.Account{}, err
	}
	return out.toModel(), nil
}

// GetListings 按全局筛选条件拉取可投标的，缺少 listing_number 的记录会被丢弃。
func (c *Client) GetListings(ctx context.Context, filters map[string]string) (model.ListingPage, error) {
	limit := c.cfg.ListingsLimit
	if limit <= 0 {
		limit = 5000
	}
	params := map[string]string{
		"limit":    strconv.Itoa(limit),
		"biddable": "true",
		"invested": "false",
	}
	for k, v := range filters {
		params[k] = v
	}

	c.logger.Info("拉取标的列表", zap.Any("params", params))

	var out listingsResponse
	if err := c.getJSON(ctx, "get_listings", listingsPath, params, &out); err != nil {
		return model.ListingPage{}, err
	}

	page := model.ListingPage{
		Results:     make([]model.Listing, 0, len(out.Result)),
		ResultCount: out.ResultCount,
		TotalCount:  out.TotalCount,
	}
	for _, w := range out.Result {
		listing, ok := w.toModel()
		if !ok {
			c.logger.Warn("标的缺少 listing_number，已丢弃", zap.String("title", w.ListingTitle))
			continue
		}
		page.Results = append(page.Results, listing)
	}
	return page, nil
}

// GetOpenOrders 拉取一页订单。
func (c *Client) GetOpenOrders(ctx context.Context, limit, offset int) (model.OrderPage, error) {
	params := map[string]string{
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(offset),
	}

	var out ordersResponse
	if err := c.getJSON(ctx, "get_orders", ordersPath, params, &out); err != nil {
		return model.OrderPage{}, err
	}

	page := model.OrderPage{
		Results:     make([]model.OpenOrder, 0, len(out.Result)),
		ResultCount: out.ResultCount,
		TotalCount:  out.TotalCount,
	}
	for _, o := range out.Result {
		page.Results = append(page.Results, o.toModel())
	}
	return page, nil
}

// SubmitOrder 以单个请求提交整个投标批次。
func (c *Client) SubmitOrder(ctx context.Context, bids []model.BidRequest) (model.OrderResponse, error) {
	body := newSubmitRequest(bids)

	resp, err := c.do(ctx, "submit_order", func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("Content-Type", "application/json").SetBody(body).Post(ordersPath)
	})
	if err != nil {
		return model.OrderResponse{}, err
	}

	var out wireOrder
	if err := decode("submit_order", resp, &out); err != nil {
		return model.OrderResponse{}, err
	}
	return model.OrderResponse{
		OrderID:     out.OrderID,
		OrderStatus: out.OrderStatus,
		OrderDate:   out.OrderDate,
		BidRequests: toModelBids(out.BidRequests),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, params map[string]string, out interface{}) error {
	resp, err := c.do(ctx, op, func(r *resty.Request) (*resty.Response, error) {
		if len(params) > 0 {
			r.SetQueryParams(params)
		}
		return r.Get(path)
	})
	if err != nil {
		return err
	}
	return decode(op, resp, out)
}

// do 执行请求；令牌失效或认证失败时刷新令牌后仅重试一次。
func (c *Client) do(ctx context.Context, op string, send func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	start := time.Now()
	resp, err := c.attempt(ctx, op, send)
	if isAuthFailure(err) {
		c.logger.Info("检测到访问令牌失效，重新认证", zap.String("operation", op), zap.Error(err))
		c.invalidateToken()
		resp, err = c.attempt(ctx, op, send)
	}
	if err != nil {
		c.logger.Error("Prosper 调用失败",
			zap.String("operation", op),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Debug("Prosper 调用成功",
		zap.String("operation", op),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("latency", time.Since(start)),
	)
	return resp, nil
}

// attempt 发送一次请求，非 2xx 响应转换为 UpstreamError。
func (c *Client) attempt(ctx context.Context, op string, send func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	resp, err := c.send(ctx, op, send)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &UpstreamError{Op: op, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, op string, send func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, &UpstreamError{Op: op, Err: err}
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "bearer "+token)

	resp, err := send(req)
	if err != nil {
		return nil, &UpstreamError{Op: op, Err: err}
	}
	return resp, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != nil && c.token.Valid() {
		return c.token.AccessToken, nil
	}

	c.logger.Info("初始化 OAuth 令牌")
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, c.http.GetClient())
	token, err := c.oauth.PasswordCredentialsToken(tokenCtx, c.cfg.Username, c.cfg.Password)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: 响应中缺少 access_token", ErrAuthentication)
	}

	c.token = token
	c.logger.Info("OAuth 令牌已获取", zap.Time("expiry", token.Expiry))
	return token.AccessToken, nil
}

func (c *Client) invalidateToken() {
	c.tokenMu.Lock()
	c.token = nil
	c.tokenMu.Unlock()
}

func decode(op string, resp *resty.Response, out interface{}) error {
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("%w: %v", ErrDecode, err)}
	}
	return nil
}
