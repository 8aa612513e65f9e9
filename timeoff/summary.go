package timeoff

import (
	"context"

	"github.com/warp/vacation-engine/generic"
)

// PeriodView is the presentation of one period's balance.
type PeriodView struct {
	Index     int
	Start     generic.TimePoint
	Expiry    generic.TimePoint
	Enabled   generic.Amount
	Credited  generic.Amount
	Used      generic.Amount
	Available generic.Amount
}

// Summary is an employee's full vacation picture at AsOf.
type Summary struct {
	Employee       Employee
	AsOf           generic.TimePoint
	Eligibility    Eligibility
	Periods        []PeriodView
	TotalEnabled   generic.Amount
	TotalUsed      generic.Amount
	TotalAvailable generic.Amount
	Requests       []VacationRequest
}

// PeriodViews flattens computed balances for display.
func PeriodViews(balances generic.Balances) []PeriodView {
	views := make([]PeriodView, 0, len(balances))
	for _, b := range balances {
		views = append(views, PeriodView{
			Index:     b.Period.Index,
			Start:     b.Period.Start,
			Expiry:    b.Period.Expiry,
			Enabled:   b.Capacity(),
			Credited:  b.Credited,
			Used:      b.Consumed,
			Available: b.Available(),
		})
	}
	return views
}

// Periods returns the employee's live periods at asOf.
func (s *Service) Periods(ctx context.Context, email string, asOf generic.TimePoint) ([]PeriodView, error) {
	emp, err := s.store.GetEmployee(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = s.today()
	}
	balances, err := s.Balances(ctx, emp, asOf)
	if err != nil {
		return nil, err
	}
	return PeriodViews(balances), nil
}

// Summary computes balances as of today and lists every request of the employee.
func (s *Service) Summary(ctx context.Context, email string) (*Summary, error) {
	emp, err := s.store.GetEmployee(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	asOf := s.today()
	balances, err := s.Balances(ctx, emp, asOf)
	if err != nil {
		return nil, err
	}
	requests, err := s.store.ListRequests(ctx, RequestFilter{EmployeeEmail: emp.Email})
	if err != nil {
		return nil, err
	}

	return &Summary{
		Employee:       *emp,
		AsOf:           asOf,
		Eligibility:    s.policy.CheckEligibility(emp.HireDate, asOf),
		Periods:        PeriodViews(balances),
		TotalEnabled:   balances.TotalCapacity(),
		TotalUsed:      balances.TotalConsumed(),
		TotalAvailable: balances.TotalAvailable(),
		Requests:       requests,
	}, nil
}
