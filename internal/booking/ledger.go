package booking

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Window restricts reports to appointments created within a trailing period.
type Window string

const (
	WindowAll    Window = "all"
	Window7Days  Window = "7d"
	Window30Days Window = "30d"
)

func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case "", WindowAll:
		return WindowAll, nil
	case Window7Days, Window30Days:
		return Window(s), nil
	}
	return "", fmt.Errorf("%w: unknown report window %q", ErrInvalidInput, s)
}

func (w Window) includes(createdAt, now time.Time) bool {
	switch w {
	case Window7Days:
		return !createdAt.Before(now.Add(-7 * 24 * time.Hour))
	case Window30Days:
		return !createdAt.Before(now.Add(-30 * 24 * time.Hour))
	}
	return true
}

const DefaultTopPractitioners = 10

var hundred = decimal.NewFromInt(100)

type Summary struct {
	Total         decimal.Decimal `json:"total"`
	Consultations int             `json:"consultations"`
	Average       decimal.Decimal `json:"average_per_consultation"`
}

type FacilityEarnings struct {
	FacilityID    string           `json:"facility_id"`
	FacilityName  string           `json:"facility_name"`
	Earnings      decimal.Decimal  `json:"earnings"`
	Consultations int              `json:"consultations"`
	Average       decimal.Decimal  `json:"average_per_consultation"`
	Percentage    *decimal.Decimal `json:"percentage,omitempty"`
}

type SpecializationEarnings struct {
	Specialization string           `json:"specialization"`
	Earnings       decimal.Decimal  `json:"earnings"`
	Consultations  int              `json:"consultations"`
	Percentage     *decimal.Decimal `json:"percentage,omitempty"`
}

type DepartmentRevenue struct {
	Department string           `json:"department"`
	Revenue    decimal.Decimal  `json:"revenue"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
}

type PractitionerRevenue struct {
	PractitionerID string          `json:"practitioner_id"`
	Name           string          `json:"name"`
	Revenue        decimal.Decimal `json:"revenue"`
	Consultations  int             `json:"consultations"`
	Average        decimal.Decimal `json:"average_per_consultation"`
}

// MonthlyAmount is one point of a monthly series keyed YYYY-MM. Change is
// the percentage change from the previous point, nil when undefined.
type MonthlyAmount struct {
	Month         string           `json:"month"`
	Amount        decimal.Decimal  `json:"amount"`
	Consultations int              `json:"consultations"`
	Change        *decimal.Decimal `json:"change,omitempty"`
}

type PractitionerReport struct {
	Window           Window                   `json:"window"`
	Summary          Summary                  `json:"summary"`
	ByFacility       []FacilityEarnings       `json:"by_facility"`
	BySpecialization []SpecializationEarnings `json:"by_specialization"`
	Monthly          []MonthlyAmount          `json:"monthly"`
	Slots            SlotStats                `json:"slots"`
}

type FacilityReport struct {
	Window           Window                `json:"window"`
	Summary          Summary               `json:"summary"`
	ByDepartment     []DepartmentRevenue   `json:"by_department"`
	TopPractitioners []PractitionerRevenue `json:"top_practitioners"`
	Monthly          []MonthlyAmount       `json:"monthly"`
}

func practitionerAmount(a Appointment) decimal.Decimal { return a.PractitionerShare }
func facilityAmount(a Appointment) decimal.Decimal     { return a.FacilityShare }

// percentageOf returns part/total*100 to one decimal, nil when total is zero.
func percentageOf(part, total decimal.Decimal) *decimal.Decimal {
	if total.IsZero() {
		return nil
	}
	p := part.Div(total).Mul(hundred).Round(1)
	return &p
}

func average(total decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(count))).Round(2)
}

func summarize(appts []Appointment, amount func(Appointment) decimal.Decimal) Summary {
	total := decimal.Zero
	for _, a := range appts {
		total = total.Add(amount(a))
	}
	return Summary{
		Total:         total,
		Consultations: len(appts),
		Average:       average(total, len(appts)),
	}
}

func monthlySeries(appts []Appointment, amount func(Appointment) decimal.Decimal) []MonthlyAmount {
	byMonth := map[string]*MonthlyAmount{}
	for _, a := range appts {
		key := a.CreatedAt.Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			m = &MonthlyAmount{Month: key, Amount: decimal.Zero}
			byMonth[key] = m
		}
		m.Amount = m.Amount.Add(amount(a))
		m.Consultations++
	}

	series := make([]MonthlyAmount, 0, len(byMonth))
	for _, m := range byMonth {
		series = append(series, *m)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Month < series[j].Month })

	for i := 1; i < len(series); i++ {
		prev := series[i-1].Amount
		if prev.IsZero() {
			continue
		}
		change := series[i].Amount.Sub(prev).Div(prev).Mul(hundred).Round(1)
		series[i].Change = &change
	}
	return series
}

// windowed returns matching appointments created inside the window.
// Callers must hold the read lock.
func (e *Engine) windowed(window Window, match func(*Appointment) bool) []Appointment {
	now := e.now()
	return e.appointmentsWhere(func(a *Appointment) bool {
		return match(a) && window.includes(a.CreatedAt, now)
	})
}

func (e *Engine) earningsByFacility(appts []Appointment, total decimal.Decimal) []FacilityEarnings {
	index := map[string]int{}
	result := []FacilityEarnings{}
	for _, a := range appts {
		i, ok := index[a.FacilityID]
		if !ok {
			name := a.FacilityName
			if name == "" {
				name = "Unknown Facility"
			}
			i = len(result)
			index[a.FacilityID] = i
			result = append(result, FacilityEarnings{FacilityID: a.FacilityID, FacilityName: name, Earnings: decimal.Zero})
		}
		result[i].Earnings = result[i].Earnings.Add(a.PractitionerShare)
		result[i].Consultations++
	}
	for i := range result {
		result[i].Average = average(result[i].Earnings, result[i].Consultations)
		result[i].Percentage = percentageOf(result[i].Earnings, total)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Earnings.GreaterThan(result[j].Earnings)
	})
	return result
}

// earningsBySpecialization credits every appointment at a facility to each
// specialization of the practitioner's associations with that facility.
func (e *Engine) earningsBySpecialization(p *Practitioner, appts []Appointment, total decimal.Decimal) []SpecializationEarnings {
	index := map[string]int{}
	result := []SpecializationEarnings{}
	for _, assoc := range p.Associations {
		earned := decimal.Zero
		count := 0
		for _, a := range appts {
			if a.FacilityID == assoc.FacilityID {
				earned = earned.Add(a.PractitionerShare)
				count++
			}
		}
		for _, spec := range assoc.Specializations {
			i, ok := index[spec]
			if !ok {
				i = len(result)
				index[spec] = i
				result = append(result, SpecializationEarnings{Specialization: spec, Earnings: decimal.Zero})
			}
			result[i].Earnings = result[i].Earnings.Add(earned)
			result[i].Consultations += count
		}
	}
	for i := range result {
		result[i].Percentage = percentageOf(result[i].Earnings, total)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Earnings.GreaterThan(result[j].Earnings)
	})
	return result
}

// revenueByDepartment credits each appointment's facility share to every
// specialization of the practitioner's first association with the facility.
// Rows overlap, so percentages can sum past 100.
func (e *Engine) revenueByDepartment(facilityID string, appts []Appointment, total decimal.Decimal) []DepartmentRevenue {
	index := map[string]int{}
	result := []DepartmentRevenue{}
	for _, a := range appts {
		p, ok := e.store.practitioner(a.PractitionerID)
		if !ok {
			continue
		}
		assoc, ok := associationFor(p, facilityID)
		if !ok {
			continue
		}
		for _, spec := range assoc.Specializations {
			i, ok := index[spec]
			if !ok {
				i = len(result)
				index[spec] = i
				result = append(result, DepartmentRevenue{Department: spec, Revenue: decimal.Zero})
			}
			result[i].Revenue = result[i].Revenue.Add(a.FacilityShare)
		}
	}
	for i := range result {
		result[i].Percentage = percentageOf(result[i].Revenue, total)
	}
	return result
}

func (e *Engine) topPractitioners(appts []Appointment, n int) []PractitionerRevenue {
	if n <= 0 {
		n = DefaultTopPractitioners
	}
	index := map[string]int{}
	result := []PractitionerRevenue{}
	for _, a := range appts {
		p, ok := e.store.practitioner(a.PractitionerID)
		if !ok {
			continue
		}
		i, ok := index[p.ID]
		if !ok {
			i = len(result)
			index[p.ID] = i
			result = append(result, PractitionerRevenue{PractitionerID: p.ID, Name: p.Name, Revenue: decimal.Zero})
		}
		result[i].Revenue = result[i].Revenue.Add(a.FacilityShare)
		result[i].Consultations++
	}
	for i := range result {
		result[i].Average = average(result[i].Revenue, result[i].Consultations)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Revenue.GreaterThan(result[j].Revenue)
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

func (e *Engine) EarningsByFacility(practitionerID string, window Window) ([]FacilityEarnings, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.store.practitioner(practitionerID); !ok {
		return nil, ErrPractitionerNotFound
	}
	appts := e.windowed(window, func(a *Appointment) bool { return a.PractitionerID == practitionerID })
	return e.earningsByFacility(appts, summarize(appts, practitionerAmount).Total), nil
}

func (e *Engine) EarningsBySpecialization(practitionerID string, window Window) ([]SpecializationEarnings, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.store.practitioner(practitionerID)
	if !ok {
		return nil, ErrPractitionerNotFound
	}
	appts := e.windowed(window, func(a *Appointment) bool { return a.PractitionerID == practitionerID })
	return e.earningsBySpecialization(p, appts, summarize(appts, practitionerAmount).Total), nil
}

func (e *Engine) MonthlyEarnings(practitionerID string, window Window) ([]MonthlyAmount, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.store.practitioner(practitionerID); !ok {
		return nil, ErrPractitionerNotFound
	}
	appts := e.windowed(window, func(a *Appointment) bool { return a.PractitionerID == practitionerID })
	return monthlySeries(appts, practitionerAmount), nil
}

// RevenueByDepartment credits every department of the booked association
// with the full facility share. Departments overlap rather than partition
// the total, so their percentages can add up to more than 100.
func (e *Engine) RevenueByDepartment(facilityID string, window Window) ([]DepartmentRevenue, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.store.facility(facilityID); !ok {
		return nil, ErrFacilityNotFound
	}
	appts := e.windowed(window, func(a *Appointment) bool { return a.FacilityID == facilityID })
	return e.revenueByDepartment(facilityID, appts, summarize(appts, facilityAmount).Total), nil
}

func (e *Engine) TopPractitioners(facilityID string, window Window, n int) ([]PractitionerRevenue, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.store.facility(facilityID); !ok {
		return nil, ErrFacilityNotFound
	}
	appts := e.windowed(window, func(a *Appointment) bool { return a.FacilityID == facilityID })
	return e.topPractitioners(appts, n), nil
}

func (e *Engine) MonthlyRevenue(facilityID string, window Window) ([]MonthlyAmount, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.store.facility(facilityID); !ok {
		return nil, ErrFacilityNotFound
	}
	appts := e.windowed(window, func(a *Appointment) bool { return a.FacilityID == facilityID })
	return monthlySeries(appts, facilityAmount), nil
}

// PractitionerReport builds every practitioner view from one consistent read.
func (e *Engine) PractitionerReport(practitionerID string, window Window) (PractitionerReport, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.store.practitioner(practitionerID)
	if !ok {
		return PractitionerReport{}, ErrPractitionerNotFound
	}
	appts := e.windowed(window, func(a *Appointment) bool { return a.PractitionerID == practitionerID })
	summary := summarize(appts, practitionerAmount)

	return PractitionerReport{
		Window:           window,
		Summary:          summary,
		ByFacility:       e.earningsByFacility(appts, summary.Total),
		BySpecialization: e.earningsBySpecialization(p, appts, summary.Total),
		Monthly:          monthlySeries(appts, practitionerAmount),
		Slots:            slotStats(p),
	}, nil
}

func (e *Engine) FacilityReport(facilityID string, window Window, topN int) (FacilityReport, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.store.facility(facilityID); !ok {
		return FacilityReport{}, ErrFacilityNotFound
	}
	appts := e.windowed(window, func(a *Appointment) bool { return a.FacilityID == facilityID })
	summary := summarize(appts, facilityAmount)

	return FacilityReport{
		Window:           window,
		Summary:          summary,
		ByDepartment:     e.revenueByDepartment(facilityID, appts, summary.Total),
		TopPractitioners: e.topPractitioners(appts, topN),
		Monthly:          monthlySeries(appts, facilityAmount),
	}, nil
}
