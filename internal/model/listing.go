package model

// Listing 为一次运行中拉取到的可投资借款标的快照，只读。
type Listing struct {
	ListingNumber         int64
	ProsperRating         *string
	ProsperScore          *int
	ListingAmount         *float64
	AmountRemaining       *float64
	BorrowerRate          *float64
	ListingTerm           *int
	ListingMonthlyPayment *float64
	StatedMonthlyIncome   *float64
	MonthsEmployed        *float64
	IncomeRange           *int
	HasMortgage           *bool
	ListingCategoryID     *int
	ListingTitle          string
	BorrowerState         string
	Occupation            string
	ListingStartDate      string
	CreditBureau          *CreditBureau
}

// CreditBureau 对应 TransUnion 索引后的征信字段。
type CreditBureau struct {
	CreditReportDate         string
	Inquiries6Months         *float64
	DelinquentAccounts       *float64
	OpenAccounts             *float64
	PublicRecords            *float64
	AmountDelinquent         *float64
	BankcardUtilization      *float64
	MonthsSinceRecentInquiry *float64
	FICOScore                string
}

// Grade 返回评级，缺失时为空串。
func (l Listing) Grade() string {
	if l.ProsperRating == nil {
		return ""
	}
	return *l.ProsperRating
}

// ListingPage 为一次标的查询的结果集。
type ListingPage struct {
	Results     []Listing
	ResultCount int
	TotalCount  int
}
