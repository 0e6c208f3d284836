package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	*fixture
	lakeside Facility
}

// newLedgerFixture books three appointments for the fixture practitioner:
// Sunrise (fee 500) in December 2024, then Lakeside (fee 1500) and Sunrise
// again on 2025-01-01.
func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	fx := newFixture(t)
	fx.clock.now = time.Date(2024, 12, 5, 10, 0, 0, 0, time.UTC)

	lakeside, err := fx.engine.RegisterFacility(FacilityInput{Name: "Lakeside Clinic"})
	require.NoError(t, err)
	require.NoError(t, fx.engine.AddDepartment(lakeside.ID, "Neurology"))

	fx.associate(t, "500")
	_, err = fx.engine.Associate(fx.practitioner.ID, lakeside.ID, nil, dec("1500"))
	require.NoError(t, err)

	fx.reserve(t, fx.publish(t, at(9, 0), at(9, 30)).ID)

	fx.clock.now = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	slot, err := fx.engine.PublishSlot(fx.practitioner.ID, lakeside.ID, at(11, 0), at(11, 30))
	require.NoError(t, err)
	_, err = fx.engine.Reserve(ReserveRequest{
		PractitionerID: fx.practitioner.ID,
		FacilityID:     lakeside.ID,
		ClientID:       fx.client.ID,
		SlotID:         slot.ID,
	})
	require.NoError(t, err)
	fx.reserve(t, fx.publish(t, at(10, 0), at(10, 30)).ID)

	fx.clock.now = time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
	return &ledgerFixture{fixture: fx, lakeside: lakeside}
}

func TestParseWindow(t *testing.T) {
	for in, want := range map[string]Window{"": WindowAll, "all": WindowAll, "7d": Window7Days, "30d": Window30Days} {
		got, err := ParseWindow(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseWindow("90d")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPercentageOfZeroTotalIsNil(t *testing.T) {
	assert.Nil(t, percentageOf(dec("10"), dec("0")))

	p := percentageOf(dec("1"), dec("3"))
	require.NotNil(t, p)
	assert.Equal(t, "33.3", p.String())
}

func TestEarningsByFacility(t *testing.T) {
	fx := newLedgerFixture(t)

	rows, err := fx.engine.EarningsByFacility(fx.practitioner.ID, WindowAll)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, fx.lakeside.ID, rows[0].FacilityID)
	assert.Equal(t, "Lakeside Clinic", rows[0].FacilityName)
	assert.True(t, dec("900").Equal(rows[0].Earnings))
	assert.Equal(t, 1, rows[0].Consultations)
	require.NotNil(t, rows[0].Percentage)
	assert.True(t, dec("60").Equal(*rows[0].Percentage))

	assert.Equal(t, fx.facility.ID, rows[1].FacilityID)
	assert.True(t, dec("600").Equal(rows[1].Earnings))
	assert.Equal(t, 2, rows[1].Consultations)
	assert.True(t, dec("300").Equal(rows[1].Average))
	assert.True(t, dec("40").Equal(*rows[1].Percentage))
}

func TestEarningsRespectWindow(t *testing.T) {
	fx := newLedgerFixture(t)

	rows, err := fx.engine.EarningsByFacility(fx.practitioner.ID, Window30Days)
	require.NoError(t, err)
	total := dec("0")
	for _, r := range rows {
		total = total.Add(r.Earnings)
	}
	assert.True(t, dec("1200").Equal(total))

	rows, err = fx.engine.EarningsByFacility(fx.practitioner.ID, Window7Days)
	require.NoError(t, err)
	assert.Empty(t, rows)

	report, err := fx.engine.PractitionerReport(fx.practitioner.ID, Window7Days)
	require.NoError(t, err)
	assert.True(t, report.Summary.Total.IsZero())
	assert.Zero(t, report.Summary.Consultations)
	assert.True(t, report.Summary.Average.IsZero())
	assert.Empty(t, report.Monthly)
}

func TestEarningsBySpecialization(t *testing.T) {
	fx := newLedgerFixture(t)

	rows, err := fx.engine.EarningsBySpecialization(fx.practitioner.ID, WindowAll)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Neurology", rows[0].Specialization)
	assert.True(t, dec("900").Equal(rows[0].Earnings))
	assert.Equal(t, 1, rows[0].Consultations)
	assert.Equal(t, "Cardiology", rows[1].Specialization)
	assert.True(t, dec("600").Equal(rows[1].Earnings))
	assert.Equal(t, 2, rows[1].Consultations)
	assert.True(t, dec("40").Equal(*rows[1].Percentage))
}

func TestMonthlyEarningsChange(t *testing.T) {
	fx := newLedgerFixture(t)

	series, err := fx.engine.MonthlyEarnings(fx.practitioner.ID, WindowAll)
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, "2024-12", series[0].Month)
	assert.True(t, dec("300").Equal(series[0].Amount))
	assert.Nil(t, series[0].Change)

	assert.Equal(t, "2025-01", series[1].Month)
	assert.True(t, dec("1200").Equal(series[1].Amount))
	assert.Equal(t, 2, series[1].Consultations)
	require.NotNil(t, series[1].Change)
	assert.True(t, dec("300").Equal(*series[1].Change))
}

func TestFacilityReport(t *testing.T) {
	fx := newLedgerFixture(t)

	report, err := fx.engine.FacilityReport(fx.facility.ID, WindowAll, 0)
	require.NoError(t, err)
	assert.Equal(t, WindowAll, report.Window)
	assert.True(t, dec("400").Equal(report.Summary.Total))
	assert.Equal(t, 2, report.Summary.Consultations)
	assert.True(t, dec("200").Equal(report.Summary.Average))

	require.Len(t, report.ByDepartment, 1)
	assert.Equal(t, "Cardiology", report.ByDepartment[0].Department)
	assert.True(t, dec("100").Equal(*report.ByDepartment[0].Percentage))

	require.Len(t, report.TopPractitioners, 1)
	assert.Equal(t, fx.practitioner.ID, report.TopPractitioners[0].PractitionerID)
	assert.Equal(t, "Dr. Meera Shah", report.TopPractitioners[0].Name)

	require.Len(t, report.Monthly, 2)
	require.NotNil(t, report.Monthly[1].Change)
	assert.True(t, report.Monthly[1].Change.IsZero())
}

func TestTopPractitionersOrderAndLimit(t *testing.T) {
	fx := newLedgerFixture(t)

	other, err := fx.engine.RegisterPractitioner(PractitionerInput{Name: "Dr. Kabir Rao", Specializations: []string{"Cardiology"}})
	require.NoError(t, err)
	_, err = fx.engine.Associate(other.ID, fx.facility.ID, nil, dec("2000"))
	require.NoError(t, err)
	slot, err := fx.engine.PublishSlot(other.ID, fx.facility.ID, at(9, 0).Add(480*time.Hour), at(9, 30).Add(480*time.Hour))
	require.NoError(t, err)
	_, err = fx.engine.Reserve(ReserveRequest{PractitionerID: other.ID, FacilityID: fx.facility.ID, ClientID: fx.client.ID, SlotID: slot.ID})
	require.NoError(t, err)

	top, err := fx.engine.TopPractitioners(fx.facility.ID, WindowAll, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, other.ID, top[0].PractitionerID)
	assert.True(t, dec("800").Equal(top[0].Revenue))
	assert.Equal(t, fx.practitioner.ID, top[1].PractitionerID)

	top, err = fx.engine.TopPractitioners(fx.facility.ID, WindowAll, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, other.ID, top[0].PractitionerID)

	revenue, err := fx.engine.RevenueByDepartment(fx.facility.ID, WindowAll)
	require.NoError(t, err)
	require.Len(t, revenue, 1)
	assert.True(t, dec("1200").Equal(revenue[0].Revenue))
}

func TestReportsCountCancelledAppointments(t *testing.T) {
	fx := newLedgerFixture(t)

	before, err := fx.engine.PractitionerReport(fx.practitioner.ID, WindowAll)
	require.NoError(t, err)

	list, err := fx.engine.ListAppointmentsFor(KindPractitioner, fx.practitioner.ID)
	require.NoError(t, err)
	_, err = fx.engine.Cancel(list[0].ID)
	require.NoError(t, err)

	after, err := fx.engine.PractitionerReport(fx.practitioner.ID, WindowAll)
	require.NoError(t, err)
	assert.True(t, before.Summary.Total.Equal(after.Summary.Total))
	assert.Equal(t, 3, after.Summary.Consultations)
	assert.Equal(t, SlotStats{Booked: 3}, after.Slots)
}

func TestReportsUnknownIDs(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.engine.PractitionerReport("missing", WindowAll)
	assert.ErrorIs(t, err, ErrPractitionerNotFound)
	_, err = fx.engine.FacilityReport("missing", WindowAll, 0)
	assert.ErrorIs(t, err, ErrFacilityNotFound)
	_, err = fx.engine.MonthlyRevenue("missing", WindowAll)
	assert.ErrorIs(t, err, ErrFacilityNotFound)
	_, err = fx.engine.EarningsBySpecialization("missing", WindowAll)
	assert.ErrorIs(t, err, ErrPractitionerNotFound)
}

func TestRevenueByDepartmentCreditsEveryAssociatedDepartment(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.engine.AddDepartment(fx.facility.ID, "Neurology"))
	fx.associate(t, "500")
	appt := fx.reserve(t, fx.publish(t, at(9, 0), at(9, 30)).ID)

	rows, err := fx.engine.RevenueByDepartment(fx.facility.ID, WindowAll)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.True(t, appt.FacilityShare.Equal(row.Revenue), row.Department)
		require.NotNil(t, row.Percentage)
		assert.True(t, dec("100").Equal(*row.Percentage), row.Department)
	}
}
