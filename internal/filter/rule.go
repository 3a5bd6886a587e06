package filter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// ErrInvalidRules 表示筛选规则缺失或格式错误，属于配置错误，需在任何网络调用前终止。
var ErrInvalidRules = errors.New("invalid filter rules")

// Rule 为投资人定义的一组筛选阈值。未配置的阈值使对应判定失败。
type Rule struct {
	Name                    string   `yaml:"name"`
	Grades                  *string  `yaml:"grades"`
	EmploymentLengthOver    *int     `yaml:"employment_length_over"`
	InquiriesUnder          *int     `yaml:"inquiries_under"`
	DelinquenciesUnder      *int     `yaml:"delinquencies_under"`
	PaymentIncomeRatioUnder *float64 `yaml:"payment_income_ratio_under"`
	LoanCountOver           *int     `yaml:"loan_count_over"`
}

// ActiveFor 判断规则在当前可投笔数下是否生效。
func (r Rule) ActiveFor(affordable int) bool {
	return r.LoanCountOver != nil && *r.LoanCountOver <= affordable
}

// Label 返回用于日志的规则名称。
func (r Rule) Label(index int) string {
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	return fmt.Sprintf("filter-set-%d", index+1)
}

type ruleFile struct {
	FilterSetList []Rule `yaml:"filter-set-list"`
}

// LoadRules 从 YAML 文件读取规则列表。
func LoadRules(path string) ([]Rule, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: 未指定规则文件", ErrInvalidRules)
	}
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("%w: 读取规则文件 %q 失败: %v", ErrInvalidRules, path, err)
	}
	return ParseRules(data)
}

// ParseRules 解析规则 YAML，拒绝未知字段。
func ParseRules(data []byte) ([]Rule, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file ruleFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: 规则文件为空", ErrInvalidRules)
		}
		return nil, fmt.Errorf("%w: 解析规则文件失败: %v", ErrInvalidRules, err)
	}

	if err := ValidateRules(file.FilterSetList); err != nil {
		return nil, err
	}
	return file.FilterSetList, nil
}

// ValidateRules 校验规则列表。
func ValidateRules(rules []Rule) error {
	if len(rules) == 0 {
		return fmt.Errorf("%w: filter-set-list 不能为空", ErrInvalidRules)
	}

	var err error
	for i, r := range rules {
		label := r.Label(i)
		if r.LoanCountOver == nil {
			err = multierr.Append(err, fmt.Errorf("%s: loan_count_over 必须配置", label))
		} else if *r.LoanCountOver < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: loan_count_over 不能为负", label))
		}
		if r.EmploymentLengthOver != nil && *r.EmploymentLengthOver < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: employment_length_over 不能为负", label))
		}
		if r.InquiriesUnder != nil && *r.InquiriesUnder < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: inquiries_under 不能为负", label))
		}
		if r.DelinquenciesUnder != nil && *r.DelinquenciesUnder < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: delinquencies_under 不能为负", label))
		}
		if r.PaymentIncomeRatioUnder != nil && *r.PaymentIncomeRatioUnder < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: payment_income_ratio_under 不能为负", label))
		}
	}

	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	return nil
}
