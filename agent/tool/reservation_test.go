package tool

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/thanarat-h/frontdesk/agent/restaurant"
	"github.com/thanarat-h/frontdesk/agent/restaurant/booking"
)

// fakeReservationStore keeps reservations in memory and enforces the same
// overlap rule the real store does.
type fakeReservationStore struct {
	tables       []restaurant.Table
	reservations []restaurant.Reservation
	nextNumber   int
}

func newFakeReservationStore(tables ...restaurant.Table) *fakeReservationStore {
	return &fakeReservationStore{tables: tables}
}

func (f *fakeReservationStore) ReservableTables(_ context.Context, _ string, partySize int) ([]restaurant.Table, error) {
	var out []restaurant.Table
	for _, t := range f.tables {
		if t.CapacityMax >= partySize {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeReservationStore) ActiveReservations(_ context.Context, _ string, date string) ([]restaurant.Reservation, error) {
	var out []restaurant.Reservation
	for _, r := range f.reservations {
		if r.Date == date && r.Status != "cancelled" {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservationStore) Book(ctx context.Context, companyID string, b restaurant.Booking) (restaurant.Reservation, error) {
	duration := b.DurationMinutes
	if duration <= 0 {
		duration = booking.DefaultDurationMinutes
	}
	w, err := booking.NewWindow(b.Date, b.StartTime, duration)
	if err != nil {
		return restaurant.Reservation{}, err
	}

	tables, _ := f.ReservableTables(ctx, companyID, b.PartySize)
	active, _ := f.ActiveReservations(ctx, companyID, b.Date)
	chosen, ok := booking.FirstFree(tableCandidates(tables), reservationWindows(active), w)
	if !ok {
		return restaurant.Reservation{}, restaurant.ErrNoTableAvailable
	}

	f.nextNumber++
	res := restaurant.Reservation{
		Number:          fmt.Sprintf("RES-%05d", f.nextNumber),
		CustomerName:    b.CustomerName,
		CustomerPhone:   b.Phone,
		PartySize:       b.PartySize,
		Date:            b.Date,
		StartTime:       b.StartTime,
		DurationMinutes: duration,
		TableID:         chosen.ID,
		TableNumber:     chosen.Number,
		Status:          "confirmed",
	}
	f.reservations = append(f.reservations, res)
	return res, nil
}

func (f *fakeReservationStore) FindReservations(_ context.Context, _ string, query string) ([]restaurant.Reservation, error) {
	q := strings.ToLower(query)
	var out []restaurant.Reservation
	for _, r := range f.reservations {
		if strings.Contains(strings.ToLower(r.CustomerName), q) ||
			strings.Contains(r.CustomerPhone, query) ||
			strings.EqualFold(r.Number, query) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservationStore) Cancel(_ context.Context, _ string, number, reason string) (restaurant.Reservation, error) {
	for i, r := range f.reservations {
		if !strings.EqualFold(r.Number, number) {
			continue
		}
		switch r.Status {
		case "completed", "no_show", "cancelled":
			return r, nil
		}
		f.reservations[i].Status = "cancelled"
		f.reservations[i].CancelReason = reason
		return f.reservations[i], nil
	}
	return restaurant.Reservation{}, restaurant.ErrReservationNotFound
}

func (f *fakeReservationStore) Upcoming(_ context.Context, _ string, phone, fromDate string) ([]restaurant.Reservation, error) {
	var out []restaurant.Reservation
	for _, r := range f.reservations {
		if r.CustomerPhone == phone && r.Date >= fromDate && r.Status != "cancelled" {
			out = append(out, r)
		}
	}
	return out, nil
}

func fixedNow() time.Time {
	return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
}

func newBookingRegistry(t *testing.T, store ReservationStore) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := RegisterReservationTools(r, store, "company-1", fixedNow); err != nil {
		t.Fatal(err)
	}
	return r
}

func twoTopAndFourTop() []restaurant.Table {
	return []restaurant.Table{
		{ID: "t1", TableNumber: "1", Section: "Main", CapacityMax: 2},
		{ID: "t2", TableNumber: "2", Section: "Patio", CapacityMax: 4},
	}
}

func TestCheckAvailabilityListsFreeTables(t *testing.T) {
	store := newFakeReservationStore(twoTopAndFourTop()...)
	r := newBookingRegistry(t, store)

	got, _ := r.Dispatch(context.Background(), ToolCheckAvailability, map[string]any{
		"date": "2026-09-05", "time": "19:00", "party_size": float64(2),
	})
	if !strings.Contains(got, "Table 1") || !strings.Contains(got, "Table 2") {
		t.Fatalf("expected both tables listed, got %q", got)
	}
}

func TestCheckAvailabilityRejectsOversizedParty(t *testing.T) {
	store := newFakeReservationStore(twoTopAndFourTop()...)
	r := newBookingRegistry(t, store)

	got, _ := r.Dispatch(context.Background(), ToolCheckAvailability, map[string]any{
		"date": "2026-09-05", "time": "19:00", "party_size": float64(10),
	})
	if !strings.Contains(got, "party of 10") {
		t.Fatalf("expected a no-capacity message, got %q", got)
	}
}

func TestCheckAvailabilityMissingArgs(t *testing.T) {
	store := newFakeReservationStore(twoTopAndFourTop()...)
	r := newBookingRegistry(t, store)

	got, _ := r.Dispatch(context.Background(), ToolCheckAvailability, map[string]any{"date": "2026-09-05"})
	if !strings.Contains(got, "party size") {
		t.Fatalf("expected a missing-args message, got %q", got)
	}
}

func TestCreateReservationConfirmsWithNumber(t *testing.T) {
	store := newFakeReservationStore(twoTopAndFourTop()...)
	r := newBookingRegistry(t, store)

	got, _ := r.Dispatch(context.Background(), ToolCreateReservation, map[string]any{
		"customer_name": "Dana Reyes",
		"date":          "2026-09-05",
		"time":          "19:00",
		"party_size":    float64(2),
		"phone":         "555-0101",
	})
	if !strings.Contains(got, "RES-00001") {
		t.Fatalf("expected a confirmation number, got %q", got)
	}
	if !strings.Contains(got, "Dana Reyes") {
		t.Fatalf("expected customer name in confirmation, got %q", got)
	}
}

// Two overlapping bookings can never both land on a single table.
func TestCreateReservationOverlapNeverDoubleBooks(t *testing.T) {
	store := newFakeReservationStore(restaurant.Table{
		ID: "t1", TableNumber: "1", Section: "Main", CapacityMax: 4,
	})
	r := newBookingRegistry(t, store)

	book := func(name, startTime string) string {
		got, _ := r.Dispatch(context.Background(), ToolCreateReservation, map[string]any{
			"customer_name": name,
			"date":          "2026-09-05",
			"time":          startTime,
			"party_size":    float64(2),
			"phone":         "555-0102",
		})
		return got
	}

	first := book("First Guest", "19:00")
	if !strings.Contains(first, "confirmed") {
		t.Fatalf("first booking should succeed, got %q", first)
	}
	// 20:00 falls inside the first booking's 90-minute window.
	second := book("Second Guest", "20:00")
	if strings.Contains(second, "confirmed!") {
		t.Fatalf("overlapping booking must not succeed, got %q", second)
	}
	if !strings.Contains(second, "no table is available") {
		t.Fatalf("expected a no-table message, got %q", second)
	}
	// 20:30 starts exactly at the boundary and must succeed.
	third := book("Third Guest", "20:30")
	if !strings.Contains(third, "RES-") {
		t.Fatalf("boundary booking should succeed, got %q", third)
	}
}

func TestCreateReservationReportsMissingFields(t *testing.T) {
	store := newFakeReservationStore(twoTopAndFourTop()...)
	r := newBookingRegistry(t, store)

	got, _ := r.Dispatch(context.Background(), ToolCreateReservation, map[string]any{
		"customer_name": "Dana Reyes",
		"date":          "2026-09-05",
	})
	for _, want := range []string{"time", "party size", "phone number"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in missing-field message %q", want, got)
		}
	}
	if len(store.reservations) != 0 {
		t.Fatal("incomplete request must not create a reservation")
	}
}

func TestFindReservationByNameAndNumber(t *testing.T) {
	store := newFakeReservationStore(twoTopAndFourTop()...)
	r := newBookingRegistry(t, store)
	r.Dispatch(context.Background(), ToolCreateReservation, map[string]any{
		"customer_name": "Dana Reyes", "date": "2026-09-05", "time": "19:00",
		"party_size": float64(2), "phone": "555-0101",
	})

	byName, _ := r.Dispatch(context.Background(), ToolFindReservation, map[string]any{"query": "dana"})
	if !strings.Contains(byName, "RES-00001") {
		t.Fatalf("lookup by name failed: %q", byName)
	}
	byNumber, _ := r.Dispatch(context.Background(), ToolFindReservation, map[string]any{"query": "RES-00001"})
	if !strings.Contains(byNumber, "Dana Reyes") {
		t.Fatalf("lookup by number failed: %q", byNumber)
	}
	miss, _ := r.Dispatch(context.Background(), ToolFindReservation, map[string]any{"query": "nobody"})
	if !strings.Contains(miss, "couldn't find") {
		t.Fatalf("expected a not-found message, got %q", miss)
	}
}

func TestCancelReservationFreesTheTable(t *testing.T) {
	store := newFakeReservationStore(restaurant.Table{
		ID: "t1", TableNumber: "1", Section: "Main", CapacityMax: 4,
	})
	r := newBookingRegistry(t, store)
	r.Dispatch(context.Background(), ToolCreateReservation, map[string]any{
		"customer_name": "Dana Reyes", "date": "2026-09-05", "time": "19:00",
		"party_size": float64(2), "phone": "555-0101",
	})

	cancelled, _ := r.Dispatch(context.Background(), ToolCancelReservation, map[string]any{
		"confirmation_number": "RES-00001", "reason": "change of plans",
	})
	if !strings.Contains(cancelled, "has been cancelled") {
		t.Fatalf("expected cancellation confirmation, got %q", cancelled)
	}

	rebook, _ := r.Dispatch(context.Background(), ToolCreateReservation, map[string]any{
		"customer_name": "New Guest", "date": "2026-09-05", "time": "19:00",
		"party_size": float64(2), "phone": "555-0103",
	})
	if !strings.Contains(rebook, "RES-00002") {
		t.Fatalf("cancelled slot should be bookable again, got %q", rebook)
	}
}

func TestCancelReservationUnknownNumber(t *testing.T) {
	store := newFakeReservationStore(twoTopAndFourTop()...)
	r := newBookingRegistry(t, store)

	got, _ := r.Dispatch(context.Background(), ToolCancelReservation, map[string]any{
		"confirmation_number": "RES-09999",
	})
	if !strings.Contains(got, "couldn't find") {
		t.Fatalf("expected a not-found message, got %q", got)
	}
}

func TestUpcomingReservationsFiltersByPhoneAndDate(t *testing.T) {
	store := newFakeReservationStore(twoTopAndFourTop()...)
	r := newBookingRegistry(t, store)
	r.Dispatch(context.Background(), ToolCreateReservation, map[string]any{
		"customer_name": "Dana Reyes", "date": "2026-09-05", "time": "19:00",
		"party_size": float64(2), "phone": "555-0101",
	})

	got, _ := r.Dispatch(context.Background(), ToolUpcomingReservations, map[string]any{"phone": "555-0101"})
	if !strings.Contains(got, "RES-00001") {
		t.Fatalf("expected the booking listed, got %q", got)
	}
	none, _ := r.Dispatch(context.Background(), ToolUpcomingReservations, map[string]any{"phone": "555-9999"})
	if !strings.Contains(none, "No upcoming reservations") {
		t.Fatalf("expected an empty result message, got %q", none)
	}
}
