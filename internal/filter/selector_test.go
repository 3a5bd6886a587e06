package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prosper-investor/internal/model"
)

func listingIDs(listings []model.Listing) []int64 {
	ids := make([]int64, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ListingNumber)
	}
	return ids
}

func TestSelect_TwoOfFivePass(t *testing.T) {
	rule := Rule{
		Grades:                  ptr("A,B"),
		EmploymentLengthOver:    ptr(1),
		InquiriesUnder:          ptr(2),
		DelinquenciesUnder:      ptr(0),
		PaymentIncomeRatioUnder: ptr(0.3),
		LoanCountOver:           ptr(0),
	}

	gradeC := passingListing(2)
	gradeC.ProsperRating = ptr("C")
	newJob := passingListing(3)
	newJob.MonthsEmployed = ptr(6.0)
	delinquent := passingListing(5)
	delinquent.CreditBureau = &model.CreditBureau{Inquiries6Months: ptr(0.0), DelinquentAccounts: ptr(1.0)}
	gradeB := passingListing(4)
	gradeB.ProsperRating = ptr("B")

	listings := []model.Listing{passingListing(1), gradeC, newJob, gradeB, delinquent}

	got := NewSelector([]Rule{rule}, nil).Select(listings, 3)
	assert.Equal(t, []int64{1, 4}, listingIDs(got))
}

func TestSelect_InactiveRuleContributesNothing(t *testing.T) {
	strict := fullRule()
	strict.LoanCountOver = ptr(10)

	listings := []model.Listing{passingListing(1), passingListing(2)}
	got := NewSelector([]Rule{strict}, nil).Select(listings, 9)
	assert.Empty(t, got)

	got = NewSelector([]Rule{strict}, nil).Select(listings, 10)
	assert.Len(t, got, 2)
}

func TestSelect_RuleThenListingOrderWithDuplicates(t *testing.T) {
	first := fullRule()
	second := fullRule()
	second.Grades = ptr("B")

	b := passingListing(20)
	b.ProsperRating = ptr("B")
	listings := []model.Listing{passingListing(10), b}

	got := NewSelector([]Rule{first, second}, nil).Select(listings, 5)
	assert.Equal(t, []int64{10, 20, 20}, listingIDs(got))
}

func TestSelect_EmptyInput(t *testing.T) {
	got := NewSelector([]Rule{fullRule()}, nil).Select(nil, 5)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSelector_RulesAreCopied(t *testing.T) {
	rules := []Rule{fullRule()}
	s := NewSelector(rules, nil)
	rules[0].Grades = nil

	assert.True(t, Evaluate(s.Rules()[0], passingListing(1)))
}
