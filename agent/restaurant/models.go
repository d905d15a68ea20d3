package restaurant

import (
	"time"

	"github.com/uptrace/bun"
)

// activeReservationStatuses are the statuses that still hold a table.
var activeReservationStatuses = []string{"pending", "confirmed", "checked_in", "seated"}

type Company struct {
	bun.BaseModel `bun:"table:companies,alias:c"`

	ID   string `bun:"id,pk"`
	Name string `bun:"name"`
}

type Table struct {
	bun.BaseModel `bun:"table:restaurant_tables,alias:t"`

	ID           string `bun:"id,pk"`
	CompanyID    string `bun:"company_id"`
	TableNumber  string `bun:"table_number"`
	Section      string `bun:"section"`
	CapacityMax  int    `bun:"capacity_max"`
	Status       string `bun:"status"`
	IsActive     bool   `bun:"is_active"`
	IsReservable bool   `bun:"is_reservable"`
}

type Reservation struct {
	bun.BaseModel `bun:"table:reservations,alias:r"`

	ID              string     `bun:"id,pk"`
	CompanyID       string     `bun:"company_id"`
	CustomerID      string     `bun:"customer_id,nullzero"`
	Number          string     `bun:"reservation_number"`
	CustomerName    string     `bun:"customer_name"`
	CustomerPhone   string     `bun:"customer_phone"`
	CustomerEmail   string     `bun:"customer_email,nullzero"`
	PartySize       int        `bun:"party_size"`
	Date            string     `bun:"date"`       // YYYY-MM-DD
	StartTime       string     `bun:"start_time"` // HH:MM
	EndTime         string     `bun:"end_time"`
	DurationMinutes int        `bun:"duration_minutes"`
	TableID         string     `bun:"table_id,nullzero"`
	Status          string     `bun:"status"`
	Source          string     `bun:"source"`
	SpecialRequests string     `bun:"special_requests,nullzero"`
	CancelReason    string     `bun:"cancellation_reason,nullzero"`
	CancelledAt     *time.Time `bun:"cancelled_at,nullzero"`
	CreatedAt       time.Time  `bun:"created_at,nullzero,default:now()"`
	UpdatedAt       time.Time  `bun:"updated_at,nullzero,default:now()"`

	// Joined for display, not a column.
	TableNumber string `bun:"table_number,scanonly"`
}

type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:cu"`

	ID        string    `bun:"id,pk"`
	CompanyID string    `bun:"company_id"`
	FirstName string    `bun:"first_name"`
	LastName  string    `bun:"last_name"`
	Phone     string    `bun:"phone"`
	Email     string    `bun:"email,nullzero"`
	Source    string    `bun:"source"`
	IsActive  bool      `bun:"is_active"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:now()"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:now()"`
}

type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items,alias:mi"`

	ID          string  `bun:"id,pk"`
	CompanyID   string  `bun:"company_id"`
	Name        string  `bun:"name"`
	Description string  `bun:"description,nullzero"`
	Category    string  `bun:"category,nullzero"`
	BasePrice   float64 `bun:"base_price"`
	Allergens   string  `bun:"allergens,nullzero"`
	OrderCount  int     `bun:"order_count"`
	IsAvailable bool    `bun:"is_available"`
	IsActive    bool    `bun:"is_active"`
}

type KnowledgeEntry struct {
	bun.BaseModel `bun:"table:knowledge_entries,alias:ke"`

	ID          string `bun:"id,pk"`
	CompanyID   string `bun:"company_id"`
	Title       string `bun:"title"`
	Content     string `bun:"content"`
	ShortAnswer string `bun:"short_answer,nullzero"`
	EntryType   string `bun:"entry_type"`
	Keywords    string `bun:"keywords,nullzero"`
	Priority    int    `bun:"priority"`
	IsActive    bool   `bun:"is_active"`
}

type InventoryItem struct {
	bun.BaseModel `bun:"table:inventory_items,alias:ii"`

	ID        string  `bun:"id,pk"`
	CompanyID string  `bun:"company_id"`
	Name      string  `bun:"name"`
	Category  string  `bun:"category,nullzero"`
	Unit      string  `bun:"unit"`
	Quantity  float64 `bun:"quantity"`
	ParLevel  float64 `bun:"par_level"`
	IsActive  bool    `bun:"is_active"`
}

type StaffMember struct {
	bun.BaseModel `bun:"table:staff_members,alias:sm"`

	ID         string `bun:"id,pk"`
	CompanyID  string `bun:"company_id"`
	Name       string `bun:"name"`
	Position   string `bun:"position"`
	Department string `bun:"department,nullzero"`
	Phone      string `bun:"phone,nullzero"`
	IsActive   bool   `bun:"is_active"`
}

type StaffShift struct {
	bun.BaseModel `bun:"table:staff_shifts,alias:ss"`

	ID        string `bun:"id,pk"`
	CompanyID string `bun:"company_id"`
	StaffID   string `bun:"staff_id"`
	Date      string `bun:"date"`
	StartTime string `bun:"start_time"`
	EndTime   string `bun:"end_time"`
	Role      string `bun:"role,nullzero"`

	StaffName string `bun:"staff_name,scanonly"`
}

// Booking is the input for creating one reservation.
type Booking struct {
	CustomerName    string
	Date            string
	StartTime       string
	PartySize       int
	Phone           string
	Email           string
	SpecialRequests string
	DurationMinutes int
}

// ReservationStats aggregates recent booking activity.
type ReservationStats struct {
	Days         int
	Total        int
	Confirmed    int
	Cancelled    int
	NoShows      int
	TotalGuests  int
	AverageParty float64
}

// InventorySummary aggregates current stock.
type InventorySummary struct {
	TotalItems    int
	LowStockItems int
	Categories    int
}

// DailyOverview is the internal assistant's one-glance snapshot.
type DailyOverview struct {
	Date             string
	ReservationCount int
	GuestCount       int
	StaffOnShift     int
	LowStockItems    int
}
