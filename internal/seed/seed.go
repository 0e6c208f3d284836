// Package seed fills an engine with fake but internally consistent data.
package seed

import (
	"errors"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hackgods/care-ledger/internal/booking"
)

type Options struct {
	Facilities            int
	Practitioners         int
	Clients               int
	AssociationsPerDoctor int
	SlotsPerAssociation   int
	// BookingRatio is the share of published slots that get reserved.
	BookingRatio float64
	// Start is the first day slots are published on.
	Start time.Time
}

func DefaultOptions(now time.Time) Options {
	return Options{
		Facilities:            10,
		Practitioners:         100,
		Clients:               2000,
		AssociationsPerDoctor: 2,
		SlotsPerAssociation:   16,
		BookingRatio:          0.3,
		Start:                 now.Truncate(24 * time.Hour).Add(24 * time.Hour),
	}
}

type Stats struct {
	Facilities    int
	Practitioners int
	Clients       int
	Associations  int
	Slots         int
	Appointments  int
}

// Populate registers everything through the engine so aggregates stay
// consistent with the appointments it creates.
func Populate(e *booking.Engine, opts Options, faker *gofakeit.Faker, log zerolog.Logger) (Stats, error) {
	var stats Stats
	catalog := e.Departments()

	facilities := make([]booking.Facility, 0, opts.Facilities)
	for i := 0; i < opts.Facilities; i++ {
		f, err := e.RegisterFacility(booking.FacilityInput{
			Name:     faker.Company() + " Hospital",
			Email:    faker.Email(),
			Location: faker.City(),
		})
		if err != nil {
			return stats, fmt.Errorf("register facility: %w", err)
		}
		for _, dep := range pick(faker, catalog, faker.Number(3, 6)) {
			if err := e.AddDepartment(f.ID, dep); err != nil {
				return stats, fmt.Errorf("add department: %w", err)
			}
		}
		facilities = append(facilities, f)
	}
	stats.Facilities = len(facilities)
	log.Info().Int("count", stats.Facilities).Msg("facilities seeded")

	clients := make([]booking.Client, 0, opts.Clients)
	for i := 0; i < opts.Clients; i++ {
		c, err := e.RegisterClient(booking.ClientInput{
			Name:        faker.Name(),
			Email:       faker.Email(),
			Gender:      faker.Gender(),
			DateOfBirth: faker.DateRange(time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)),
			ExternalID:  fmt.Sprintf("PAT-%06d", i+1),
		})
		if err != nil {
			return stats, fmt.Errorf("register client: %w", err)
		}
		clients = append(clients, c)
	}
	stats.Clients = len(clients)
	log.Info().Int("count", stats.Clients).Msg("clients seeded")

	for i := 0; i < opts.Practitioners; i++ {
		p, err := e.RegisterPractitioner(booking.PractitionerInput{
			Name:              "Dr. " + faker.Name(),
			Email:             faker.Email(),
			Qualifications:    faker.RandomString([]string{"MBBS", "MBBS, MD", "MBBS, MS", "MD, DM"}),
			Specializations:   pick(faker, catalog, faker.Number(1, 3)),
			YearsOfExperience: faker.Number(1, 35),
		})
		if err != nil {
			return stats, fmt.Errorf("register practitioner: %w", err)
		}
		stats.Practitioners++

		for _, f := range pickFacilities(faker, facilities, opts.AssociationsPerDoctor) {
			fee := decimal.NewFromInt(int64(faker.Number(20, 200) * 10))
			if _, err := e.Associate(p.ID, f.ID, nil, fee); err != nil {
				if errors.Is(err, booking.ErrNoMatch) {
					continue
				}
				return stats, fmt.Errorf("associate: %w", err)
			}
			stats.Associations++

			n, booked, err := publishAndBook(e, faker, opts, p.ID, f.ID, clients)
			if err != nil {
				return stats, err
			}
			stats.Slots += n
			stats.Appointments += booked
		}
	}
	log.Info().
		Int("practitioners", stats.Practitioners).
		Int("associations", stats.Associations).
		Int("slots", stats.Slots).
		Int("appointments", stats.Appointments).
		Msg("practitioners seeded")

	return stats, nil
}

// publishAndBook lays out 30 minute slots from 09:00 on consecutive days and
// reserves a share of them.
func publishAndBook(e *booking.Engine, faker *gofakeit.Faker, opts Options, practitionerID, facilityID string, clients []booking.Client) (slots, booked int, err error) {
	const perDay = 8
	for i := 0; i < opts.SlotsPerAssociation; i++ {
		day := opts.Start.AddDate(0, 0, i/perDay)
		start := day.Add(9*time.Hour + time.Duration(i%perDay)*30*time.Minute)
		slot, err := e.PublishSlot(practitionerID, facilityID, start, start.Add(30*time.Minute))
		if err != nil {
			return slots, booked, fmt.Errorf("publish slot: %w", err)
		}
		slots++

		if len(clients) == 0 || faker.Float64Range(0, 1) >= opts.BookingRatio {
			continue
		}
		client := clients[faker.Number(0, len(clients)-1)]
		if _, err := e.Reserve(booking.ReserveRequest{
			PractitionerID: practitionerID,
			FacilityID:     facilityID,
			ClientID:       client.ID,
			SlotID:         slot.ID,
		}); err != nil {
			return slots, booked, fmt.Errorf("reserve: %w", err)
		}
		booked++
	}
	return slots, booked, nil
}

func pick(faker *gofakeit.Faker, from []string, n int) []string {
	shuffled := append([]string{}, from...)
	faker.ShuffleStrings(shuffled)
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

func pickFacilities(faker *gofakeit.Faker, from []booking.Facility, n int) []booking.Facility {
	shuffled := append([]booking.Facility{}, from...)
	faker.ShuffleAnySlice(shuffled)
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
