package notify

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"prosper-investor/internal/config"
	"prosper-investor/internal/model"
)

// Message 为一封纯文本邮件。
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Mailer 负责投递邮件。
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Service 生成订单、异常与账户概况通知。发送失败只记录日志，不向调用方返回错误。
type Service struct {
	mailer  Mailer
	from    string
	to      []string
	prefix  string
	minimum decimal.Decimal
	logger  *zap.Logger
}

// NewService 构造通知服务，mailer 为空时所有通知都会被跳过。
func NewService(cfg config.NotificationConfig, minimum decimal.Decimal, mailer Mailer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		mailer:  mailer,
		from:    cfg.From,
		to:      append([]string(nil), cfg.To...),
		prefix:  strings.TrimSpace(cfg.Prefix),
		minimum: minimum,
		logger:  logger,
	}
}

// NotifyOrder 发送投标批次通知，response 为空表示演练未下单。
func (s *Service) NotifyOrder(ctx context.Context, account model.Account, listings []model.Listing, response *model.OrderResponse) {
	s.send(ctx, "order", "Prosper Order Submitted", OrderBody(account, listings, response, s.minimum))
}

// NotifyError 发送异常通知。
func (s *Service) NotifyError(ctx context.Context, message string) {
	s.send(ctx, "error", "Prosper Error Notification", message)
}

// NotifyAccountSummary 发送账户概况。
func (s *Service) NotifyAccountSummary(ctx context.Context, summary model.AccountSummary) {
	s.send(ctx, "account_summary", "Prosper Account Summary", AccountSummaryBody(summary))
}

func (s *Service) send(ctx context.Context, kind, subject, body string) {
	if s.mailer == nil {
		s.logger.Info("未配置邮件发送端，跳过通知", zap.String("kind", kind))
		return
	}

	if s.prefix != "" {
		subject = s.prefix + " " + subject
	}
	msg := Message{From: s.from, To: s.to, Subject: subject, Body: body}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("发送通知失败", zap.String("kind", kind), zap.Error(err))
		return
	}
	s.logger.Info("通知已发送", zap.String("kind", kind), zap.Strings("to", s.to))
}

// OrderBody 生成订单通知正文。总额按批次笔数乘以最小投资额计算。
func OrderBody(account model.Account, listings []model.Listing, response *model.OrderResponse, minimum decimal.Decimal) string {
	lines := make([]string, 0, len(listings)+8)
	if response != nil {
		lines = append(lines,
			"Order Number: "+response.OrderID,
			"Order Status: "+response.OrderStatus,
			"Order Date: "+response.OrderDate,
		)
	} else {
		lines = append(lines, "Testing, no order submitted...")
	}

	total := minimum.Mul(decimal.NewFromInt(int64(len(listings))))
	lines = append(lines,
		fmt.Sprintf("Listing Count: %d", len(listings)),
		"Total Amount: "+FormatMoney(total),
		"Available Cash Balance: "+FormatMoney(account.AvailableCash().Sub(total)),
		"",
		"Listings:",
	)
	for _, l := range listings {
		lines = append(lines, fmt.Sprintf("%s %d", l.Grade(), l.ListingNumber))
	}
	return strings.Join(lines, "\n")
}

// AccountSummaryBody 生成账户概况正文，已投资评级按字母排序，末尾列出处理中的订单。
func AccountSummaryBody(summary model.AccountSummary) string {
	account := summary.Account
	row := func(label string, v decimal.NullDecimal) string {
		return fmt.Sprintf("%-30s %13s", label, FormatMoney(model.OrZero(v)))
	}

	lines := []string{
		"Account Summary",
		strings.Repeat("=", 40),
		row("Available Cash Balance:", account.AvailableCashBalance),
		row("Pending Investments:", account.PendingInvestmentsPrimaryMarket),
		row("Total Principal Received:", account.TotalPrincipalReceivedOnActive),
		row("Total Amount Invested:", account.TotalAmountInvestedOnActive),
		row("Outstanding Principal:", account.OutstandingPrincipalOnActive),
		row("Total Account Value:", account.TotalAccountValue),
		"",
		"Invested Note Grades:",
		strings.Repeat("-", 40),
	}

	grades := make([]string, 0, len(account.InvestedNotes))
	for grade := range account.InvestedNotes {
		grades = append(grades, grade)
	}
	sort.Strings(grades)
	for _, grade := range grades {
		lines = append(lines, fmt.Sprintf("%-16s %13s", "("+grade+"):", FormatMoney(account.InvestedNotes[grade])))
	}

	lines = append(lines, "", "In-Progress Orders:", strings.Repeat("-", 40))
	inProgress := summary.InProgressOrders()
	switch {
	case summary.OrdersUnavailable:
		lines = append(lines, "Unavailable")
	case len(inProgress) == 0:
		lines = append(lines, "None")
	default:
		for _, o := range inProgress {
			ids := make([]string, 0, len(o.BidRequests))
			for _, bid := range o.BidRequests {
				ids = append(ids, strconv.FormatInt(bid.ListingID, 10))
			}
			lines = append(lines, fmt.Sprintf("%s (%s): %s", o.OrderID, o.OrderDate, strings.Join(ids, ", ")))
		}
	}
	if !summary.OrdersUnavailable {
		lines = append(lines, fmt.Sprintf("Pending Listings: %d", len(summary.PendingListingIDs())))
	}
	return strings.Join(lines, "\n")
}

// FormatMoney 输出带千分位的美元金额，例如 $1,234.50 或 -$20.00。
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	return sign + "$" + grouped.String() + "." + frac
}
