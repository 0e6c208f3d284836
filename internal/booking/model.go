package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusAccepted  AppointmentStatus = "accepted"
	StatusRejected  AppointmentStatus = "rejected"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether s is one of the known appointment statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusAccepted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Kind names one of the entity collections held by the store.
type Kind string

const (
	KindFacility     Kind = "facility"
	KindPractitioner Kind = "practitioner"
	KindClient       Kind = "client"
	KindAppointment  Kind = "appointment"
)

type Facility struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	Location           string          `json:"location"`
	Departments        []string        `json:"departments"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	TotalConsultations int             `json:"total_consultations"`
	CreatedAt          time.Time       `json:"created_at"`
}

type Practitioner struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	Qualifications     string          `json:"qualifications"`
	Specializations    []string        `json:"specializations"`
	YearsOfExperience  int             `json:"years_of_experience"`
	TotalEarnings      decimal.Decimal `json:"total_earnings"`
	TotalConsultations int             `json:"total_consultations"`
	Associations       []Association   `json:"associations"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Association links a practitioner to a facility. It carries its own fee,
// calendar and running totals and is owned by the practitioner.
type Association struct {
	FacilityID      string          `json:"facility_id"`
	FacilityName    string          `json:"facility_name"`
	Specializations []string        `json:"specializations"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
	Slots           []TimeSlot      `json:"slots"`
	Earnings        decimal.Decimal `json:"earnings"`
	Consultations   int             `json:"consultations"`
}

// TimeSlot is the half-open interval [Start, End).
type TimeSlot struct {
	ID     string    `json:"id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Booked bool      `json:"booked"`
}

// Overlaps reports whether the two half-open intervals intersect.
func (s TimeSlot) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && start.Before(s.End)
}

type Client struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	Gender             string          `json:"gender"`
	DateOfBirth        time.Time       `json:"date_of_birth"`
	ExternalID         string          `json:"external_id"`
	TotalConsultations int             `json:"total_consultations"`
	TotalSpent         decimal.Decimal `json:"total_spent"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Appointment is the record of a reservation. Fee and shares are frozen at
// creation; only Status changes afterwards.
type Appointment struct {
	ID                string            `json:"id"`
	PractitionerID    string            `json:"practitioner_id"`
	FacilityID        string            `json:"facility_id"`
	FacilityName      string            `json:"facility_name"`
	ClientID          string            `json:"client_id"`
	Slot              TimeSlot          `json:"slot"`
	ConsultationFee   decimal.Decimal   `json:"consultation_fee"`
	PractitionerShare decimal.Decimal   `json:"practitioner_share"`
	FacilityShare     decimal.Decimal   `json:"facility_share"`
	Status            AppointmentStatus `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
}

// OpenSlot is an unbooked slot annotated with the association it belongs to.
type OpenSlot struct {
	TimeSlot
	FacilityID      string          `json:"facility_id"`
	FacilityName    string          `json:"facility_name"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
	Specializations []string        `json:"specializations"`
}

type SlotStats struct {
	Available int `json:"available"`
	Booked    int `json:"booked"`
}

// DefaultDepartments is the service category catalog used when no stored
// catalog exists.
var DefaultDepartments = []string{
	"Cardiology",
	"Orthopedics",
	"Pediatrics",
	"Neurology",
	"Oncology",
	"Dermatology",
	"Psychiatry",
	"Emergency Medicine",
	"General Surgery",
	"Internal Medicine",
}

func (f Facility) clone() Facility {
	f.Departments = cloneStrings(f.Departments)
	return f
}

func (p Practitioner) clone() Practitioner {
	p.Specializations = cloneStrings(p.Specializations)
	if p.Associations != nil {
		assocs := make([]Association, len(p.Associations))
		for i, a := range p.Associations {
			assocs[i] = a.clone()
		}
		p.Associations = assocs
	}
	return p
}

func (a Association) clone() Association {
	a.Specializations = cloneStrings(a.Specializations)
	if a.Slots != nil {
		a.Slots = append([]TimeSlot(nil), a.Slots...)
	}
	return a
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
