package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/care-ledger/internal/booking"
	"github.com/hackgods/care-ledger/internal/metrics"
)

var testNow = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, checks map[string]Pinger) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	engine := booking.NewEngine(
		booking.WithClock(func() time.Time { return testNow }),
		booking.WithObserver(metrics.NewEngineMetrics(reg)),
	)
	return &testServer{
		t: t,
		handler: NewRouter(RouterConfig{
			Engine:  engine,
			Logger:  zerolog.Nop(),
			Checks:  checks,
			Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			Env:     "test",
			Version: "dev",
		}),
	}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type bookingSetup struct {
	facility     booking.Facility
	practitioner booking.Practitioner
	client       booking.Client
	slot         booking.TimeSlot
}

func (s *testServer) setup() bookingSetup {
	t := s.t
	rec := s.do(http.MethodPost, "/facilities", FacilityRequest{Name: "Sunrise Hospital", Location: "Pune"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	f := decode[booking.Facility](t, rec)

	rec = s.do(http.MethodPost, "/facilities/"+f.ID+"/departments", DepartmentRequest{Name: "Cardiology"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/practitioners", PractitionerRequest{Name: "Dr. Meera Shah", Specializations: []string{"Cardiology", "Neurology"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[booking.Practitioner](t, rec)

	rec = s.do(http.MethodPost, "/practitioners/"+p.ID+"/associations", map[string]any{
		"facility_id":      f.ID,
		"specializations":  []string{"Cardiology", "Neurology"},
		"consultation_fee": "500",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/practitioners/"+p.ID+"/associations/"+f.ID+"/slots", SlotRequest{
		Start: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	slot := decode[booking.TimeSlot](t, rec)

	rec = s.do(http.MethodPost, "/clients", ClientRequest{Name: "Arjun Patel", DateOfBirth: "1990-05-17", ExternalID: "PAT-0001"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decode[booking.Client](t, rec)

	return bookingSetup{facility: f, practitioner: p, client: c, slot: slot}
}

func (s *testServer) reserve(b bookingSetup) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/appointments", ReserveRequest{
		PractitionerID: b.practitioner.ID,
		FacilityID:     b.facility.ID,
		ClientID:       b.client.ID,
		SlotID:         b.slot.ID,
	})
}

func TestReserveFlow(t *testing.T) {
	s := newTestServer(t, nil)
	b := s.setup()

	rec := s.reserve(b)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	appt := decode[booking.Appointment](t, rec)
	assert.Equal(t, booking.StatusConfirmed, appt.Status)
	assert.True(t, decimal.NewFromInt(300).Equal(appt.PractitionerShare))
	assert.True(t, decimal.NewFromInt(200).Equal(appt.FacilityShare))

	rec = s.reserve(b)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_booked", decode[ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodGet, "/appointments/"+appt.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, appt.ID, decode[booking.Appointment](t, rec).ID)

	rec = s.do(http.MethodPost, "/appointments/"+appt.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, booking.StatusCancelled, decode[booking.Appointment](t, rec).Status)

	rec = s.do(http.MethodPost, "/appointments/"+appt.ID+"/status", StatusRequest{Status: "accepted"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, booking.StatusAccepted, decode[booking.Appointment](t, rec).Status)

	rec = s.do(http.MethodPost, "/appointments/"+appt.ID+"/status", StatusRequest{Status: "pending"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodGet, "/facilities/"+b.facility.ID, nil)
	f := decode[booking.Facility](t, rec)
	assert.Equal(t, 1, f.TotalConsultations)
	assert.True(t, decimal.NewFromInt(200).Equal(f.TotalRevenue))

	rec = s.do(http.MethodGet, "/clients/"+b.client.ID+"/appointments?filter=all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]booking.Appointment](t, rec), 1)

	rec = s.do(http.MethodGet, "/practitioners/"+b.practitioner.ID+"/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]booking.Appointment](t, rec), 1)
}

func TestAssociationAndSlotErrors(t *testing.T) {
	s := newTestServer(t, nil)
	b := s.setup()

	rec := s.do(http.MethodPost, "/facilities", FacilityRequest{Name: "Skin Clinic"})
	other := decode[booking.Facility](t, rec)
	s.do(http.MethodPost, "/facilities/"+other.ID+"/departments", DepartmentRequest{Name: "Dermatology"})

	rec = s.do(http.MethodPost, "/practitioners/"+b.practitioner.ID+"/associations", map[string]any{
		"facility_id": other.ID, "consultation_fee": 500,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "no_match", decode[ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodPost, "/practitioners/"+b.practitioner.ID+"/associations", map[string]any{
		"facility_id": b.facility.ID, "consultation_fee": 0,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_fee", decode[ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodPost, "/practitioners/"+b.practitioner.ID+"/associations/"+b.facility.ID+"/slots", SlotRequest{
		Start: time.Date(2025, 1, 10, 9, 15, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 10, 9, 45, 0, 0, time.UTC),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "overlap", decode[ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodGet, "/practitioners/"+b.practitioner.ID+"/associations/"+b.facility.ID+"/slots", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]booking.TimeSlot](t, rec), 1)

	rec = s.do(http.MethodGet, "/practitioners/"+b.practitioner.ID+"/slots/open?date=2025-01-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]booking.OpenSlot](t, rec), 1)

	rec = s.do(http.MethodGet, "/practitioners/"+b.practitioner.ID+"/slots/open?date=10-01-2025", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/facilities/"+b.facility.ID+"/departments", DepartmentRequest{Name: "Cardiology"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestNotFoundAndBadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/facilities/nope", "/practitioners/nope", "/clients/nope", "/appointments/nope"} {
		rec := s.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec := s.do(http.MethodPost, "/appointments/nope/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/facilities", strings.NewReader("{not json"))
	raw := httptest.NewRecorder()
	s.handler.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
	assert.Equal(t, "invalid_request_body", decode[ErrorResponse](t, raw).Error)

	rec = s.do(http.MethodPost, "/facilities", FacilityRequest{Name: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode[ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodPost, "/clients", ClientRequest{Name: "A", DateOfBirth: "17/05/1990"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileUpdatesAndDiscovery(t *testing.T) {
	s := newTestServer(t, nil)
	b := s.setup()

	rec := s.do(http.MethodPatch, "/facilities/"+b.facility.ID, map[string]any{"location": "Mumbai"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mumbai", decode[booking.Facility](t, rec).Location)

	rec = s.do(http.MethodPatch, "/clients/"+b.client.ID, map[string]any{"date_of_birth": "1991-02-03"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1991, decode[booking.Client](t, rec).DateOfBirth.Year())

	rec = s.do(http.MethodPatch, "/practitioners/"+b.practitioner.ID, map[string]any{"years_of_experience": 15})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 15, decode[booking.Practitioner](t, rec).YearsOfExperience)

	rec = s.do(http.MethodGet, "/practitioners?specialization=Cardiology&facility_id="+b.facility.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]booking.Practitioner](t, rec), 1)

	rec = s.do(http.MethodGet, "/departments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, booking.DefaultDepartments, decode[DepartmentsResponse](t, rec).Departments)

	rec = s.do(http.MethodGet, "/facilities/"+b.facility.ID+"/departments/available", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, decode[DepartmentsResponse](t, rec).Departments, "Cardiology")
}

func TestReportsEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	b := s.setup()
	require.Equal(t, http.StatusCreated, s.reserve(b).Code)

	rec := s.do(http.MethodGet, "/practitioners/"+b.practitioner.ID+"/reports?window=30d", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pr := decode[booking.PractitionerReport](t, rec)
	assert.True(t, decimal.NewFromInt(300).Equal(pr.Summary.Total))
	assert.Equal(t, booking.SlotStats{Booked: 1}, pr.Slots)

	rec = s.do(http.MethodGet, "/facilities/"+b.facility.ID+"/reports?top=5", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fr := decode[booking.FacilityReport](t, rec)
	assert.True(t, decimal.NewFromInt(200).Equal(fr.Summary.Total))
	require.Len(t, fr.TopPractitioners, 1)

	rec = s.do(http.MethodGet, "/facilities/"+b.facility.ID+"/reports?window=1y", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodGet, "/facilities/"+b.facility.ID+"/reports?top=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	down := PingFunc(func(context.Context) error { return errors.New("refused") })
	up := PingFunc(func(context.Context) error { return nil })

	s := newTestServer(t, map[string]Pinger{"postgres": up, "redis": down})
	rec := s.do(http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	ready := decode[ReadinessResponse](t, rec)
	assert.Equal(t, "degraded", ready.Status)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "down"}, ready.Dependencies)

	s = newTestServer(t, map[string]Pinger{"redis": down})
	rec = s.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.setup()
	rec = s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `careledger_engine_operations_total{operation="publish_slot",outcome="ok"} 1`)
}
