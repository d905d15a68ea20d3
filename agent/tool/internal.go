package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/thanarat-h/frontdesk/agent/restaurant"
)

const (
	ToolTodaysReservations = "get_todays_reservations"
	ToolReservationStats   = "get_reservation_stats"
	ToolTableStatus        = "get_table_status"
	ToolLowStockItems      = "get_low_stock_items"
	ToolInventorySummary   = "get_inventory_summary"
	ToolTodaysShifts       = "get_todays_shifts"
	ToolListStaff          = "list_staff_members"
	ToolPopularMenuItems   = "get_popular_menu_items"
	ToolDailyOverview      = "get_daily_overview"
)

func InternalToolNames() []string {
	return []string{
		ToolTodaysReservations,
		ToolReservationStats,
		ToolTableStatus,
		ToolLowStockItems,
		ToolInventorySummary,
		ToolTodaysShifts,
		ToolListStaff,
		ToolPopularMenuItems,
		ToolDailyOverview,
	}
}

// InternalStore is the staff-facing slice of the data layer. Everything here
// is read-only: the internal assistant reports, it never mutates.
type InternalStore interface {
	ReservationsByDate(ctx context.Context, companyID, date string) ([]restaurant.Reservation, error)
	ReservationStats(ctx context.Context, companyID string, days int) (restaurant.ReservationStats, error)
	TableStatus(ctx context.Context, companyID string) ([]restaurant.Table, error)
	LowStock(ctx context.Context, companyID string, thresholdPct int) ([]restaurant.InventoryItem, error)
	InventoryOverview(ctx context.Context, companyID string) (restaurant.InventorySummary, error)
	ShiftsByDate(ctx context.Context, companyID, date string) ([]restaurant.StaffShift, error)
	ListStaff(ctx context.Context, companyID, department string) ([]restaurant.StaffMember, error)
	PopularMenuItems(ctx context.Context, companyID string, limit int) ([]restaurant.MenuItem, error)
	Overview(ctx context.Context, companyID, date string) (restaurant.DailyOverview, error)
}

func RegisterInternalTools(r *Registry, store InternalStore, companyID string, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	today := func() string { return now().Format("2006-01-02") }

	handlers := []Handler{
		{
			Info: &schema.ToolInfo{
				Name: ToolTodaysReservations,
				Desc: "List all reservations for today, or for a specific date.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"date": {Type: schema.String, Desc: "Date in YYYY-MM-DD format, defaults to today"},
				}),
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				date := stringArg(args, "date")
				if date == "" {
					date = today()
				}
				reservations, err := store.ReservationsByDate(ctx, companyID, date)
				if err != nil {
					return "", err
				}
				if len(reservations) == 0 {
					return fmt.Sprintf("No reservations on the books for %s.", friendlyDate(date)), nil
				}
				guests := 0
				for _, res := range reservations {
					guests += res.PartySize
				}
				var b strings.Builder
				fmt.Fprintf(&b, "%d reservations (%d guests) for %s:", len(reservations), guests, friendlyDate(date))
				for _, res := range reservations {
					fmt.Fprintf(&b, "\n- %s: %s, party of %d", friendlyTime(res.StartTime), res.CustomerName, res.PartySize)
					if res.TableNumber != "" {
						fmt.Fprintf(&b, ", Table %s", res.TableNumber)
					}
					fmt.Fprintf(&b, " [%s]", res.Status)
					if res.SpecialRequests != "" {
						fmt.Fprintf(&b, " (%s)", res.SpecialRequests)
					}
				}
				return b.String(), nil
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: ToolReservationStats,
				Desc: "Summarize booking activity over the last N days.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"days": {Type: schema.Integer, Desc: "Look-back window in days, defaults to 7"},
				}),
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				days := intArgDefault(args, "days", 7)
				stats, err := store.ReservationStats(ctx, companyID, days)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf(
					"Last %d days: %d reservations (%d confirmed, %d cancelled, %d no-shows), %d guests total, average party of %.1f.",
					stats.Days, stats.Total, stats.Confirmed, stats.Cancelled, stats.NoShows, stats.TotalGuests, stats.AverageParty,
				), nil
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: ToolTableStatus,
				Desc: "Show the current status of every table on the floor.",
			},
			Invoke: func(ctx context.Context, _ map[string]any) (string, error) {
				tables, err := store.TableStatus(ctx, companyID)
				if err != nil {
					return "", err
				}
				if len(tables) == 0 {
					return "No tables are configured.", nil
				}
				var b strings.Builder
				b.WriteString("Table status:")
				for _, t := range tables {
					fmt.Fprintf(&b, "\n- Table %s (%s, seats %d): %s", t.TableNumber, t.Section, t.CapacityMax, t.Status)
				}
				return b.String(), nil
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: ToolLowStockItems,
				Desc: "List inventory items at or below a percentage of their par level.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"threshold_pct": {Type: schema.Integer, Desc: "Percentage of par level, defaults to 100"},
				}),
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				threshold := intArgDefault(args, "threshold_pct", 100)
				items, err := store.LowStock(ctx, companyID, threshold)
				if err != nil {
					return "", err
				}
				if len(items) == 0 {
					return fmt.Sprintf("No items are at or below %d%% of par level.", threshold), nil
				}
				var b strings.Builder
				fmt.Fprintf(&b, "%d items low on stock:", len(items))
				for _, item := range items {
					fmt.Fprintf(&b, "\n- %s: %.1f %s on hand (par %.1f)", item.Name, item.Quantity, item.Unit, item.ParLevel)
				}
				return b.String(), nil
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: ToolInventorySummary,
				Desc: "Give a one-line summary of the current inventory.",
			},
			Invoke: func(ctx context.Context, _ map[string]any) (string, error) {
				summary, err := store.InventoryOverview(ctx, companyID)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf(
					"Inventory: %d active items across %d categories, %d below par level.",
					summary.TotalItems, summary.Categories, summary.LowStockItems,
				), nil
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: ToolTodaysShifts,
				Desc: "List staff shifts for today, or for a specific date.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"date": {Type: schema.String, Desc: "Date in YYYY-MM-DD format, defaults to today"},
				}),
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				date := stringArg(args, "date")
				if date == "" {
					date = today()
				}
				shifts, err := store.ShiftsByDate(ctx, companyID, date)
				if err != nil {
					return "", err
				}
				if len(shifts) == 0 {
					return fmt.Sprintf("No shifts scheduled for %s.", friendlyDate(date)), nil
				}
				var b strings.Builder
				fmt.Fprintf(&b, "Shifts for %s:", friendlyDate(date))
				for _, sh := range shifts {
					fmt.Fprintf(&b, "\n- %s: %s to %s", sh.StaffName, friendlyTime(sh.StartTime), friendlyTime(sh.EndTime))
					if sh.Role != "" {
						fmt.Fprintf(&b, " (%s)", sh.Role)
					}
				}
				return b.String(), nil
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: ToolListStaff,
				Desc: "List active staff members, optionally filtered by department.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"department": {Type: schema.String, Desc: "Department filter, e.g. kitchen or front of house"},
				}),
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				department := stringArg(args, "department")
				staff, err := store.ListStaff(ctx, companyID, department)
				if err != nil {
					return "", err
				}
				if len(staff) == 0 {
					if department != "" {
						return fmt.Sprintf("No active staff found in the %s department.", department), nil
					}
					return "No active staff members found.", nil
				}
				var b strings.Builder
				b.WriteString("Staff members:")
				for _, member := range staff {
					fmt.Fprintf(&b, "\n- %s, %s", member.Name, member.Position)
					if member.Department != "" {
						fmt.Fprintf(&b, " (%s)", member.Department)
					}
				}
				return b.String(), nil
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: ToolPopularMenuItems,
				Desc: "List the most-ordered menu items.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"limit": {Type: schema.Integer, Desc: "How many items to return, defaults to 5"},
				}),
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				limit := intArgDefault(args, "limit", 5)
				items, err := store.PopularMenuItems(ctx, companyID, limit)
				if err != nil {
					return "", err
				}
				if len(items) == 0 {
					return "No menu order data available yet.", nil
				}
				var b strings.Builder
				b.WriteString("Most popular items:")
				for i, item := range items {
					fmt.Fprintf(&b, "\n%d. %s: %d orders ($%.2f)", i+1, item.Name, item.OrderCount, item.BasePrice)
				}
				return b.String(), nil
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: ToolDailyOverview,
				Desc: "One-glance snapshot of today: reservations, covers, staffing, and stock alerts.",
			},
			Invoke: func(ctx context.Context, _ map[string]any) (string, error) {
				overview, err := store.Overview(ctx, companyID, today())
				if err != nil {
					return "", err
				}
				return fmt.Sprintf(
					"Overview for %s: %d reservations, %d expected guests, %d staff on shift, %d items low on stock.",
					friendlyDate(overview.Date), overview.ReservationCount, overview.GuestCount, overview.StaffOnShift, overview.LowStockItems,
				), nil
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
