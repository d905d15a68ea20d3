package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/thanarat-h/frontdesk/agent/restaurant"
	"github.com/thanarat-h/frontdesk/agent/restaurant/booking"
)

const (
	ToolCheckAvailability    = "check_availability"
	ToolCreateReservation    = "create_reservation"
	ToolFindReservation      = "find_reservation"
	ToolCancelReservation    = "cancel_reservation"
	ToolUpcomingReservations = "get_upcoming_reservations"
)

// ReservationToolNames lists the booking-side catalog in registration order.
func ReservationToolNames() []string {
	return []string{
		ToolCheckAvailability,
		ToolCreateReservation,
		ToolFindReservation,
		ToolCancelReservation,
		ToolUpcomingReservations,
	}
}

// ReservationStore is the slice of the restaurant data layer the booking
// tools touch.
type ReservationStore interface {
	ReservableTables(ctx context.Context, companyID string, partySize int) ([]restaurant.Table, error)
	ActiveReservations(ctx context.Context, companyID, date string) ([]restaurant.Reservation, error)
	Book(ctx context.Context, companyID string, b restaurant.Booking) (restaurant.Reservation, error)
	FindReservations(ctx context.Context, companyID, query string) ([]restaurant.Reservation, error)
	Cancel(ctx context.Context, companyID, number, reason string) (restaurant.Reservation, error)
	Upcoming(ctx context.Context, companyID, phone, fromDate string) ([]restaurant.Reservation, error)
}

// RegisterReservationTools binds the booking tools for one company. now is
// injectable so tests can pin "today".
func RegisterReservationTools(r *Registry, store ReservationStore, companyID string, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}

	handlers := []Handler{
		{
			Info: &schema.ToolInfo{
				Name: ToolCheckAvailability,
				Desc: "Check which tables are free for a given date, time, and party size.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"date":       {Type: schema.String, Desc: "Reservation date in YYYY-MM-DD format", Required: true},
					"time":       {Type: schema.String, Desc: "Start time in 24-hour HH:MM format", Required: true},
					"party_size": {Type: schema.Integer, Desc: "Number of guests", Required: true},
				}),
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				return checkAvailability(ctx, store, companyID, args)
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: ToolCreateReservation,
				Desc: "Create a reservation once the customer has confirmed all details. Call at most once per booking.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"customer_name":    {Type: schema.String, Desc: "Full name for the reservation", Required: true},
					"date":             {Type: schema.String, Desc: "Reservation date in YYYY-MM-DD format", Required: true},
					"time":             {Type: schema.String, Desc: "Start time in 24-hour HH:MM format", Required: true},
					"party_size":       {Type: schema.Integer, Desc: "Number of guests", Required: true},
					"phone":            {Type: schema.String, Desc: "Customer contact phone number", Required: true},
					"special_requests": {Type: schema.String, Desc: "Optional special requests"},
				}),
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				return createReservation(ctx, store, companyID, args)
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: ToolFindReservation,
				Desc: "Look up existing reservations by customer name, phone number, or confirmation number.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"query": {Type: schema.String, Desc: "Name, phone number, or confirmation number", Required: true},
				}),
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				return findReservation(ctx, store, companyID, args)
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: ToolCancelReservation,
				Desc: "Cancel a reservation identified by its confirmation number.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"confirmation_number": {Type: schema.String, Desc: "Confirmation number, e.g. RES-00042", Required: true},
					"reason":              {Type: schema.String, Desc: "Optional cancellation reason"},
				}),
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				return cancelReservation(ctx, store, companyID, args)
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: ToolUpcomingReservations,
				Desc: "List a customer's upcoming reservations by phone number.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"phone": {Type: schema.String, Desc: "Customer phone number", Required: true},
				}),
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				phone := stringArg(args, "phone")
				if phone == "" {
					return "I need a phone number to look up upcoming reservations.", nil
				}
				today := now().Format("2006-01-02")
				reservations, err := store.Upcoming(ctx, companyID, phone, today)
				if err != nil {
					return "", err
				}
				if len(reservations) == 0 {
					return fmt.Sprintf("No upcoming reservations found for %s.", phone), nil
				}
				return formatReservationList("Upcoming reservations:", reservations), nil
			},
		},
	}

	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			return err
		}
	}
	return nil
}

func checkAvailability(ctx context.Context, store ReservationStore, companyID string, args map[string]any) (string, error) {
	date := stringArg(args, "date")
	startTime := stringArg(args, "time")
	partySize := intArg(args, "party_size")
	if date == "" || startTime == "" || partySize <= 0 {
		return "I need a date, a time, and the party size to check availability.", nil
	}

	w, err := booking.NewWindow(date, startTime, booking.DefaultDurationMinutes)
	if err != nil {
		return fmt.Sprintf("I couldn't read that date and time. Please use a date like 2026-09-01 and a time like 19:00. (%v)", err), nil
	}

	tables, err := store.ReservableTables(ctx, companyID, partySize)
	if err != nil {
		return "", err
	}
	if len(tables) == 0 {
		return fmt.Sprintf("Sorry, we don't have any tables that can seat a party of %d.", partySize), nil
	}

	reservations, err := store.ActiveReservations(ctx, companyID, date)
	if err != nil {
		return "", err
	}

	cands := tableCandidates(tables)
	occ := reservationWindows(reservations)

	free := booking.FreeTables(cands, occ, w)
	if len(free) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Available tables for %d guests on %s at %s:\n", partySize, friendlyDate(date), friendlyTime(startTime))
		for i, t := range free {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "- Table %s (%s, seats %d)\n", t.Number, t.Section, t.Capacity)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}

	alternatives := booking.Alternatives(cands, occ, w, 3)
	if len(alternatives) > 0 {
		return fmt.Sprintf(
			"Unfortunately %s is fully booked on %s, but we do have openings at %s. Would any of those work?",
			friendlyTime(startTime), friendlyDate(date), strings.Join(alternatives, ", "),
		), nil
	}
	return fmt.Sprintf("I'm sorry, we're fully booked for a party of %d on %s.", partySize, friendlyDate(date)), nil
}

func createReservation(ctx context.Context, store ReservationStore, companyID string, args map[string]any) (string, error) {
	b := restaurant.Booking{
		CustomerName:    stringArg(args, "customer_name"),
		Date:            stringArg(args, "date"),
		StartTime:       stringArg(args, "time"),
		PartySize:       intArg(args, "party_size"),
		Phone:           stringArg(args, "phone"),
		SpecialRequests: stringArg(args, "special_requests"),
	}

	var missing []string
	if b.CustomerName == "" {
		missing = append(missing, "customer name")
	}
	if b.Date == "" {
		missing = append(missing, "date")
	}
	if b.StartTime == "" {
		missing = append(missing, "time")
	}
	if b.PartySize <= 0 {
		missing = append(missing, "party size")
	}
	if b.Phone == "" {
		missing = append(missing, "phone number")
	}
	if len(missing) > 0 {
		return fmt.Sprintf("I still need the %s before I can book this.", strings.Join(missing, ", ")), nil
	}

	res, err := store.Book(ctx, companyID, b)
	if err != nil {
		if errors.Is(err, restaurant.ErrNoTableAvailable) {
			return fmt.Sprintf(
				"I'm sorry, no table is available for %d guests on %s at %s. Would you like to try a different time?",
				b.PartySize, friendlyDate(b.Date), friendlyTime(b.StartTime),
			), nil
		}
		return "", err
	}

	text := fmt.Sprintf(
		"Reservation confirmed! %s, party of %d, on %s at %s",
		res.CustomerName, res.PartySize, friendlyDate(res.Date), friendlyTime(res.StartTime),
	)
	if res.TableNumber != "" {
		text += fmt.Sprintf(", Table %s", res.TableNumber)
	}
	text += fmt.Sprintf(". Your confirmation number is %s.", res.Number)
	return text, nil
}

func findReservation(ctx context.Context, store ReservationStore, companyID string, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "I need a name, phone number, or confirmation number to look that up.", nil
	}
	reservations, err := store.FindReservations(ctx, companyID, query)
	if err != nil {
		return "", err
	}
	if len(reservations) == 0 {
		return fmt.Sprintf("I couldn't find any reservations matching %q.", query), nil
	}
	return formatReservationList("Found the following reservations:", reservations), nil
}

func cancelReservation(ctx context.Context, store ReservationStore, companyID string, args map[string]any) (string, error) {
	number := stringArg(args, "confirmation_number")
	if number == "" {
		return "I need the confirmation number to cancel a reservation.", nil
	}
	reason := stringArg(args, "reason")

	res, err := store.Cancel(ctx, companyID, number, reason)
	if err != nil {
		if errors.Is(err, restaurant.ErrReservationNotFound) {
			return fmt.Sprintf("I couldn't find a reservation with confirmation number %s.", number), nil
		}
		return "", err
	}

	switch res.Status {
	case "cancelled":
		return fmt.Sprintf(
			"Reservation %s for %s on %s at %s has been cancelled.",
			res.Number, res.CustomerName, friendlyDate(res.Date), friendlyTime(res.StartTime),
		), nil
	case "completed", "no_show":
		return fmt.Sprintf("Reservation %s is already %s and can no longer be cancelled.", res.Number, res.Status), nil
	default:
		return fmt.Sprintf("Reservation %s is currently %s and was not changed.", res.Number, res.Status), nil
	}
}

/* ---------------------------- formatting ---------------------------- */

func formatReservationList(header string, reservations []restaurant.Reservation) string {
	var b strings.Builder
	b.WriteString(header)
	for _, r := range reservations {
		fmt.Fprintf(&b, "\n- %s: %s, %s at %s, party of %d",
			r.Number, r.CustomerName, friendlyDate(r.Date), friendlyTime(r.StartTime), r.PartySize)
		if r.TableNumber != "" {
			fmt.Fprintf(&b, ", Table %s", r.TableNumber)
		}
		fmt.Fprintf(&b, " (%s)", r.Status)
	}
	return b.String()
}

func friendlyDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2")
}

func friendlyTime(hhmm string) string {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return hhmm
	}
	return t.Format("3:04 PM")
}

func tableCandidates(tables []restaurant.Table) []booking.Candidate {
	out := make([]booking.Candidate, 0, len(tables))
	for _, t := range tables {
		out = append(out, booking.Candidate{
			ID:       t.ID,
			Number:   t.TableNumber,
			Section:  t.Section,
			Capacity: t.CapacityMax,
		})
	}
	return out
}

func reservationWindows(reservations []restaurant.Reservation) []booking.Occupied {
	out := make([]booking.Occupied, 0, len(reservations))
	for _, r := range reservations {
		w, err := booking.NewWindow(r.Date, r.StartTime, r.DurationMinutes)
		if err != nil {
			continue
		}
		out = append(out, booking.Occupied{TableID: r.TableID, Window: w})
	}
	return out
}
