package tool

import (
	"context"
	"strings"
	"testing"

	"github.com/thanarat-h/frontdesk/agent/restaurant"
)

type fakeInternalStore struct {
	reservations []restaurant.Reservation
	shifts       []restaurant.StaffShift
	lowStock     []restaurant.InventoryItem
}

func (f *fakeInternalStore) ReservationsByDate(_ context.Context, _, date string) ([]restaurant.Reservation, error) {
	var out []restaurant.Reservation
	for _, r := range f.reservations {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeInternalStore) ReservationStats(context.Context, string, int) (restaurant.ReservationStats, error) {
	return restaurant.ReservationStats{Days: 7, Total: 12, Confirmed: 9, Cancelled: 2, NoShows: 1, TotalGuests: 40, AverageParty: 3.3}, nil
}

func (f *fakeInternalStore) TableStatus(context.Context, string) ([]restaurant.Table, error) {
	return []restaurant.Table{{TableNumber: "1", Section: "Main", CapacityMax: 4, Status: "available"}}, nil
}

func (f *fakeInternalStore) LowStock(context.Context, string, int) ([]restaurant.InventoryItem, error) {
	return f.lowStock, nil
}

func (f *fakeInternalStore) InventoryOverview(context.Context, string) (restaurant.InventorySummary, error) {
	return restaurant.InventorySummary{TotalItems: 30, LowStockItems: len(f.lowStock), Categories: 5}, nil
}

func (f *fakeInternalStore) ShiftsByDate(_ context.Context, _, date string) ([]restaurant.StaffShift, error) {
	var out []restaurant.StaffShift
	for _, s := range f.shifts {
		if s.Date == date {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeInternalStore) ListStaff(context.Context, string, string) ([]restaurant.StaffMember, error) {
	return []restaurant.StaffMember{{Name: "Sam Ortiz", Position: "Server", Department: "front of house"}}, nil
}

func (f *fakeInternalStore) PopularMenuItems(context.Context, string, int) ([]restaurant.MenuItem, error) {
	return []restaurant.MenuItem{{Name: "Margherita", OrderCount: 120, BasePrice: 14.5}}, nil
}

func (f *fakeInternalStore) Overview(_ context.Context, _, date string) (restaurant.DailyOverview, error) {
	return restaurant.DailyOverview{Date: date, ReservationCount: 3, GuestCount: 10, StaffOnShift: 4, LowStockItems: len(f.lowStock)}, nil
}

func newInternalRegistry(t *testing.T, store InternalStore) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := RegisterInternalTools(r, store, "company-1", fixedNow); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestTodaysReservationsDefaultsToToday(t *testing.T) {
	store := &fakeInternalStore{reservations: []restaurant.Reservation{
		{Date: "2026-09-01", StartTime: "19:00", CustomerName: "Dana Reyes", PartySize: 4, Status: "confirmed"},
		{Date: "2026-09-02", StartTime: "18:00", CustomerName: "Other Day", PartySize: 2, Status: "confirmed"},
	}}
	r := newInternalRegistry(t, store)

	got, _ := r.Dispatch(context.Background(), ToolTodaysReservations, map[string]any{})
	if !strings.Contains(got, "Dana Reyes") {
		t.Fatalf("expected today's booking, got %q", got)
	}
	if strings.Contains(got, "Other Day") {
		t.Fatalf("tomorrow's booking leaked into today: %q", got)
	}
}

func TestTodaysShiftsEmptyDate(t *testing.T) {
	r := newInternalRegistry(t, &fakeInternalStore{})
	got, _ := r.Dispatch(context.Background(), ToolTodaysShifts, map[string]any{"date": "2026-09-03"})
	if !strings.Contains(got, "No shifts scheduled") {
		t.Fatalf("expected empty-shift message, got %q", got)
	}
}

func TestLowStockListsItems(t *testing.T) {
	store := &fakeInternalStore{lowStock: []restaurant.InventoryItem{
		{Name: "Tomatoes", Quantity: 2, Unit: "kg", ParLevel: 10},
	}}
	r := newInternalRegistry(t, store)

	got, _ := r.Dispatch(context.Background(), ToolLowStockItems, map[string]any{})
	if !strings.Contains(got, "Tomatoes") || !strings.Contains(got, "par 10.0") {
		t.Fatalf("expected low stock detail, got %q", got)
	}
}

func TestInternalCatalogIsComplete(t *testing.T) {
	r := newInternalRegistry(t, &fakeInternalStore{})
	for _, name := range InternalToolNames() {
		if !r.Known(name) {
			t.Fatalf("tool %s missing from registry", name)
		}
	}
	if got := len(r.Infos(InternalToolNames()...)); got != len(InternalToolNames()) {
		t.Fatalf("expected %d infos, got %d", len(InternalToolNames()), got)
	}
}
