package filter

import (
	"strings"

	"prosper-investor/internal/model"
)

// CheckGrade 判断评级是否在规则接受的评级列表中。
func CheckGrade(r Rule, grade *string) bool {
	if r.Grades == nil || grade == nil {
		return false
	}
	for _, accepted := range strings.Split(*r.Grades, ",") {
		if strings.TrimSpace(accepted) == *grade {
			return true
		}
	}
	return false
}

// CheckEmploymentLength 判断在职月数是否达到规则要求的年限。
func CheckEmploymentLength(r Rule, monthsEmployed *float64) bool {
	if r.EmploymentLengthOver == nil || monthsEmployed == nil {
		return false
	}
	return *monthsEmployed >= float64(*r.EmploymentLengthOver*12)
}

// CheckInquiries 判断近 6 个月征信查询次数。
func CheckInquiries(r Rule, inquiries *float64) bool {
	if r.InquiriesUnder == nil || inquiries == nil {
		return false
	}
	return *inquiries <= float64(*r.InquiriesUnder)
}

// CheckDelinquencies 判断逾期账户数。
func CheckDelinquencies(r Rule, delinquencies *float64) bool {
	if r.DelinquenciesUnder == nil || delinquencies == nil {
		return false
	}
	return *delinquencies <= float64(*r.DelinquenciesUnder)
}

// CheckPaymentIncomeRatio 判断月供与月收入之比，收入为 0 时无定义，视为不通过。
func CheckPaymentIncomeRatio(r Rule, payment, monthlyIncome *float64) bool {
	if r.PaymentIncomeRatioUnder == nil || payment == nil || monthlyIncome == nil || *monthlyIncome == 0 {
		return false
	}
	return *payment / *monthlyIncome <= *r.PaymentIncomeRatioUnder
}

// Evaluate 判断标的是否通过规则的全部判定及硬性门槛。
func Evaluate(r Rule, l model.Listing) bool {
	if l.CreditBureau == nil {
		return false
	}
	if l.StatedMonthlyIncome == nil || *l.StatedMonthlyIncome <= 0 {
		return false
	}
	return CheckGrade(r, l.ProsperRating) &&
		CheckEmploymentLength(r, l.MonthsEmployed) &&
		CheckInquiries(r, l.CreditBureau.Inquiries6Months) &&
		CheckDelinquencies(r, l.CreditBureau.DelinquentAccounts) &&
		CheckPaymentIncomeRatio(r, l.ListingMonthlyPayment, l.StatedMonthlyIncome)
}
