package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hackgods/care-ledger/internal/booking"
)

const dateLayout = "2006-01-02"

type FacilityRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Location string `json:"location"`
}

type FacilityPatchRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Location *string `json:"location"`
}

type PractitionerRequest struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Qualifications    string   `json:"qualifications"`
	Specializations   []string `json:"specializations"`
	YearsOfExperience int      `json:"years_of_experience"`
}

type PractitionerPatchRequest struct {
	Name              *string  `json:"name"`
	Email             *string  `json:"email"`
	Qualifications    *string  `json:"qualifications"`
	Specializations   []string `json:"specializations"`
	YearsOfExperience *int     `json:"years_of_experience"`
}

// ClientRequest carries the date of birth as YYYY-MM-DD.
type ClientRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth"`
	ExternalID  string `json:"external_id"`
}

type ClientPatchRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Gender      *string `json:"gender"`
	DateOfBirth *string `json:"date_of_birth"`
}

type DepartmentRequest struct {
	Name string `json:"name"`
}

type AssociationRequest struct {
	FacilityID      string          `json:"facility_id"`
	Specializations []string        `json:"specializations"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
}

type SlotRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type ReserveRequest struct {
	PractitionerID string `json:"practitioner_id"`
	FacilityID     string `json:"facility_id"`
	ClientID       string `json:"client_id"`
	SlotID         string `json:"slot_id"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type DepartmentsResponse struct {
	Departments []string `json:"departments"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (req FacilityRequest) input() booking.FacilityInput {
	return booking.FacilityInput{Name: req.Name, Email: req.Email, Location: req.Location}
}

func (req FacilityPatchRequest) patch() booking.FacilityPatch {
	return booking.FacilityPatch{Name: req.Name, Email: req.Email, Location: req.Location}
}

func (req PractitionerRequest) input() booking.PractitionerInput {
	return booking.PractitionerInput{
		Name:              req.Name,
		Email:             req.Email,
		Qualifications:    req.Qualifications,
		Specializations:   req.Specializations,
		YearsOfExperience: req.YearsOfExperience,
	}
}

func (req PractitionerPatchRequest) patch() booking.PractitionerPatch {
	return booking.PractitionerPatch{
		Name:              req.Name,
		Email:             req.Email,
		Qualifications:    req.Qualifications,
		Specializations:   req.Specializations,
		YearsOfExperience: req.YearsOfExperience,
	}
}

func (req ClientRequest) input() (booking.ClientInput, error) {
	in := booking.ClientInput{
		Name:       req.Name,
		Email:      req.Email,
		Gender:     req.Gender,
		ExternalID: req.ExternalID,
	}
	if req.DateOfBirth != "" {
		dob, err := parseDate(req.DateOfBirth)
		if err != nil {
			return booking.ClientInput{}, err
		}
		in.DateOfBirth = dob
	}
	return in, nil
}

func (req ClientPatchRequest) patch() (booking.ClientPatch, error) {
	p := booking.ClientPatch{Name: req.Name, Email: req.Email, Gender: req.Gender}
	if req.DateOfBirth != nil {
		dob, err := parseDate(*req.DateOfBirth)
		if err != nil {
			return booking.ClientPatch{}, err
		}
		p.DateOfBirth = &dob
	}
	return p, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", booking.ErrInvalidInput, s)
	}
	return t, nil
}
