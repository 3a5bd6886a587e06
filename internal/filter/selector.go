package filter

import (
	"go.uber.org/zap"

	"prosper-investor/internal/model"
)

// Selector 将全部生效规则应用到标的批次上。
type Selector struct {
	rules  []Rule
	logger *zap.Logger
}

// NewSelector 创建筛选器，规则在创建后不可变。
func NewSelector(rules []Rule, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Selector{rules: copied, logger: logger}
}

// Rules 返回规则副本。
func (s *Selector) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Select 按“规则外层、标的内层”的顺序输出匹配标的。多条规则命中同一标的时会重复出现，由下单构建阶段去重。
func (s *Selector) Select(listings []model.Listing, affordable int) []model.Listing {
	selected := make([]model.Listing, 0)
	if len(listings) == 0 {
		return selected
	}

	for i, rule := range s.rules {
		label := rule.Label(i)
		if !rule.ActiveFor(affordable) {
			s.logger.Info("筛选规则未生效，跳过",
				zap.String("rule", label),
				zap.Intp("loan_count_over", rule.LoanCountOver),
				zap.Int("affordable", affordable),
			)
			continue
		}

		s.logger.Info("筛选规则生效", zap.String("rule", label), zap.Intp("loan_count_over", rule.LoanCountOver))
		matched := 0
		for _, listing := range listings {
			if !Evaluate(rule, listing) {
				continue
			}
			selected = append(selected, listing)
			matched++
			s.logger.Debug("标的命中规则",
				zap.String("rule", label),
				zap.Int64("listing_number", listing.ListingNumber),
				zap.String("grade", listing.Grade()),
			)
		}
		s.logger.Info("规则筛选完成", zap.String("rule", label), zap.Int("matched", matched))
	}

	return selected
}
