package restaurant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/thanarat-h/frontdesk/agent/restaurant/booking"
)

var (
	ErrCompanyNotFound     = errors.New("company not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrNoTableAvailable    = errors.New("no table available")
)

// Store is the bun-backed tenant data access layer consumed by the tools.
// Every mutating method runs in a single transaction so a failed tool
// invocation leaves no partial state.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CompanyName(ctx context.Context, companyID string) (string, error) {
	var company Company
	err := s.db.NewSelect().
		Model(&company).
		Where("c.id = ?", companyID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrCompanyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load company: %w", err)
	}
	return company.Name, nil
}

/* ---------------------------- reservations ---------------------------- */

// ReservableTables lists active reservable tables that can seat the party,
// smallest first so the overlap helpers pick the tightest fit.
func (s *Store) ReservableTables(ctx context.Context, companyID string, partySize int) ([]Table, error) {
	var tables []Table
	err := s.db.NewSelect().
		Model(&tables).
		Where("t.company_id = ?", companyID).
		Where("t.status = ?", "available").
		Where("t.is_active = TRUE").
		Where("t.is_reservable = TRUE").
		Where("t.capacity_max >= ?", partySize).
		Order("capacity_max ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	return tables, nil
}

// ActiveReservations returns the reservations still holding tables on a date.
func (s *Store) ActiveReservations(ctx context.Context, companyID, date string) ([]Reservation, error) {
	var reservations []Reservation
	err := s.db.NewSelect().
		Model(&reservations).
		Where("r.company_id = ?", companyID).
		Where("r.date = ?", date).
		Where("r.status IN (?)", bun.In(activeReservationStatuses)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load day reservations: %w", err)
	}
	return reservations, nil
}

// Book creates a reservation in one transaction: pick the smallest free
// table (re-checking conflicts inside the transaction), upsert the customer,
// assign a confirmation number, insert. Returns ErrNoTableAvailable when
// every fitting table overlaps an existing booking.
func (s *Store) Book(ctx context.Context, companyID string, b Booking) (Reservation, error) {
	window, err := booking.NewWindow(b.Date, b.StartTime, b.DurationMinutes)
	if err != nil {
		return Reservation{}, err
	}
	duration := int(window.End.Sub(window.Start).Minutes())

	var created Reservation
	txErr := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var tables []Table
		if err := tx.NewSelect().
			Model(&tables).
			Where("t.company_id = ?", companyID).
			Where("t.status = ?", "available").
			Where("t.is_active = TRUE").
			Where("t.is_reservable = TRUE").
			Where("t.capacity_max >= ?", b.PartySize).
			Order("capacity_max ASC").
			Scan(ctx); err != nil {
			return fmt.Errorf("load tables: %w", err)
		}
		if len(tables) == 0 {
			return ErrNoTableAvailable
		}

		var existing []Reservation
		if err := tx.NewSelect().
			Model(&existing).
			Where("r.company_id = ?", companyID).
			Where("r.date = ?", b.Date).
			Where("r.status IN (?)", bun.In(activeReservationStatuses)).
			Scan(ctx); err != nil {
			return fmt.Errorf("load day reservations: %w", err)
		}

		chosen, ok := booking.FirstFree(candidates(tables), occupied(existing), window)
		if !ok {
			return ErrNoTableAvailable
		}

		customerID, err := s.findOrCreateCustomer(ctx, tx, companyID, b)
		if err != nil {
			return err
		}

		count, err := tx.NewSelect().
			Model((*Reservation)(nil)).
			Where("company_id = ?", companyID).
			Count(ctx)
		if err != nil {
			return fmt.Errorf("count reservations: %w", err)
		}

		now := time.Now().UTC()
		created = Reservation{
			ID:              uuid.NewString(),
			CompanyID:       companyID,
			CustomerID:      customerID,
			Number:          fmt.Sprintf("RES-%05d", count+1),
			CustomerName:    b.CustomerName,
			CustomerPhone:   b.Phone,
			CustomerEmail:   b.Email,
			PartySize:       b.PartySize,
			Date:            b.Date,
			StartTime:       b.StartTime,
			EndTime:         window.End.Format("15:04"),
			DurationMinutes: duration,
			TableID:         chosen.ID,
			Status:          "confirmed",
			Source:          "ai_agent",
			SpecialRequests: b.SpecialRequests,
			CreatedAt:       now,
			UpdatedAt:       now,
			TableNumber:     chosen.Number,
		}
		if _, err := tx.NewInsert().Model(&created).Exec(ctx); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return Reservation{}, txErr
	}
	return created, nil
}

func (s *Store) findOrCreateCustomer(ctx context.Context, tx bun.Tx, companyID string, b Booking) (string, error) {
	var existing Customer
	err := tx.NewSelect().
		Model(&existing).
		Where("cu.company_id = ?", companyID).
		Where("cu.phone = ?", b.Phone).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("lookup customer: %w", err)
	}

	first, last := splitName(b.CustomerName)
	now := time.Now().UTC()
	customer := Customer{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		FirstName: first,
		LastName:  last,
		Phone:     b.Phone,
		Email:     b.Email,
		Source:    "ai_agent",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := tx.NewInsert().Model(&customer).Exec(ctx); err != nil {
		return "", fmt.Errorf("insert customer: %w", err)
	}
	return customer.ID, nil
}

func splitName(full string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(full), " ", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}

// FindReservations searches active reservations by customer name, phone, or
// confirmation number.
func (s *Store) FindReservations(ctx context.Context, companyID, query string) ([]Reservation, error) {
	var reservations []Reservation
	pattern := "%" + strings.TrimSpace(query) + "%"
	err := s.db.NewSelect().
		Model(&reservations).
		ColumnExpr("r.*").
		ColumnExpr("t.table_number AS table_number").
		Join("LEFT JOIN restaurant_tables AS t ON t.id = r.table_id").
		Where("r.company_id = ?", companyID).
		Where("r.status NOT IN (?)", bun.In([]string{"cancelled", "no_show", "completed"})).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("r.customer_name ILIKE ?", pattern).
				WhereOr("r.customer_phone ILIKE ?", pattern).
				WhereOr("r.reservation_number ILIKE ?", pattern)
		}).
		Order("r.date ASC", "r.start_time ASC").
		Limit(5).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("find reservations: %w", err)
	}
	return reservations, nil
}

// Cancel marks a reservation cancelled in one transaction. Terminal
// reservations come back unchanged so the caller can phrase the refusal.
func (s *Store) Cancel(ctx context.Context, companyID, number, reason string) (Reservation, error) {
	var reservation Reservation
	txErr := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Model(&reservation).
			Where("r.company_id = ?", companyID).
			Where("r.reservation_number = ?", number).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReservationNotFound
		}
		if err != nil {
			return fmt.Errorf("load reservation: %w", err)
		}

		switch reservation.Status {
		case "cancelled", "completed", "no_show":
			return nil
		}

		now := time.Now().UTC()
		cancelReason := "Cancelled via AI agent"
		if strings.TrimSpace(reason) != "" {
			cancelReason += ": " + reason
		}
		_, err = tx.NewUpdate().
			Model((*Reservation)(nil)).
			Set("status = ?", "cancelled").
			Set("cancellation_reason = ?", cancelReason).
			Set("cancelled_at = ?", now).
			Set("updated_at = ?", now).
			Where("id = ?", reservation.ID).
			Where("company_id = ?", companyID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("cancel reservation: %w", err)
		}
		reservation.Status = "cancelled"
		return nil
	})
	if txErr != nil {
		return Reservation{}, txErr
	}
	return reservation, nil
}

// Upcoming lists a customer's future reservations by phone number.
func (s *Store) Upcoming(ctx context.Context, companyID, phone, fromDate string) ([]Reservation, error) {
	var reservations []Reservation
	err := s.db.NewSelect().
		Model(&reservations).
		ColumnExpr("r.*").
		ColumnExpr("t.table_number AS table_number").
		Join("LEFT JOIN restaurant_tables AS t ON t.id = r.table_id").
		Where("r.company_id = ?", companyID).
		Where("r.customer_phone ILIKE ?", "%"+strings.TrimSpace(phone)+"%").
		Where("r.date >= ?", fromDate).
		Where("r.status NOT IN (?)", bun.In([]string{"cancelled", "no_show", "completed"})).
		Order("r.date ASC", "r.start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load upcoming reservations: %w", err)
	}
	return reservations, nil
}

/* ----------------------------- information ----------------------------- */

// SearchKnowledge does keyword search over the knowledge base. Semantic
// search stays behind this boundary; keyword matching is the implementation.
func (s *Store) SearchKnowledge(ctx context.Context, companyID, query string, limit int) ([]KnowledgeEntry, error) {
	var entries []KnowledgeEntry
	pattern := "%" + strings.TrimSpace(query) + "%"
	err := s.db.NewSelect().
		Model(&entries).
		Where("ke.company_id = ?", companyID).
		Where("ke.is_active = TRUE").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("ke.title ILIKE ?", pattern).
				WhereOr("ke.content ILIKE ?", pattern).
				WhereOr("ke.short_answer ILIKE ?", pattern).
				WhereOr("ke.keywords ILIKE ?", pattern)
		}).
		Order("priority DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("search knowledge: %w", err)
	}
	return entries, nil
}

func (s *Store) SearchMenu(ctx context.Context, companyID, query string, limit int) ([]MenuItem, error) {
	var items []MenuItem
	pattern := "%" + strings.TrimSpace(query) + "%"
	err := s.db.NewSelect().
		Model(&items).
		Where("mi.company_id = ?", companyID).
		Where("mi.is_active = TRUE").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("mi.name ILIKE ?", pattern).
				WhereOr("mi.description ILIKE ?", pattern).
				WhereOr("mi.category ILIKE ?", pattern)
		}).
		Order("is_available DESC", "base_price ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("search menu: %w", err)
	}
	return items, nil
}

/* ------------------------- internal operations ------------------------- */

func (s *Store) ReservationsByDate(ctx context.Context, companyID, date string) ([]Reservation, error) {
	var reservations []Reservation
	err := s.db.NewSelect().
		Model(&reservations).
		ColumnExpr("r.*").
		ColumnExpr("t.table_number AS table_number").
		Join("LEFT JOIN restaurant_tables AS t ON t.id = r.table_id").
		Where("r.company_id = ?", companyID).
		Where("r.date = ?", date).
		Where("r.status NOT IN (?)", bun.In([]string{"cancelled", "no_show"})).
		Order("r.start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reservations by date: %w", err)
	}
	return reservations, nil
}

func (s *Store) ReservationStats(ctx context.Context, companyID string, days int) (ReservationStats, error) {
	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02")

	var rows []Reservation
	err := s.db.NewSelect().
		Model(&rows).
		Column("r.status", "r.party_size").
		Where("r.company_id = ?", companyID).
		Where("r.date >= ?", since).
		Scan(ctx)
	if err != nil {
		return ReservationStats{}, fmt.Errorf("load reservation stats: %w", err)
	}

	stats := ReservationStats{Days: days, Total: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case "confirmed", "checked_in", "seated", "completed":
			stats.Confirmed++
		case "cancelled":
			stats.Cancelled++
		case "no_show":
			stats.NoShows++
		}
		stats.TotalGuests += r.PartySize
	}
	if stats.Total > 0 {
		stats.AverageParty = float64(stats.TotalGuests) / float64(stats.Total)
	}
	return stats, nil
}

func (s *Store) TableStatus(ctx context.Context, companyID string) ([]Table, error) {
	var tables []Table
	err := s.db.NewSelect().
		Model(&tables).
		Where("t.company_id = ?", companyID).
		Where("t.is_active = TRUE").
		Order("table_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load table status: %w", err)
	}
	return tables, nil
}

// LowStock lists items at or below thresholdPct percent of their par level.
func (s *Store) LowStock(ctx context.Context, companyID string, thresholdPct int) ([]InventoryItem, error) {
	var items []InventoryItem
	err := s.db.NewSelect().
		Model(&items).
		Where("ii.company_id = ?", companyID).
		Where("ii.is_active = TRUE").
		Where("ii.par_level > 0").
		Where("ii.quantity <= ii.par_level * ? / 100.0", thresholdPct).
		Order("quantity / par_level ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load low stock: %w", err)
	}
	return items, nil
}

func (s *Store) InventoryOverview(ctx context.Context, companyID string) (InventorySummary, error) {
	var items []InventoryItem
	err := s.db.NewSelect().
		Model(&items).
		Column("ii.category", "ii.quantity", "ii.par_level").
		Where("ii.company_id = ?", companyID).
		Where("ii.is_active = TRUE").
		Scan(ctx)
	if err != nil {
		return InventorySummary{}, fmt.Errorf("load inventory: %w", err)
	}

	summary := InventorySummary{TotalItems: len(items)}
	cats := make(map[string]struct{})
	for _, it := range items {
		cats[it.Category] = struct{}{}
		if it.ParLevel > 0 && it.Quantity <= it.ParLevel*0.6 {
			summary.LowStockItems++
		}
	}
	summary.Categories = len(cats)
	return summary, nil
}

func (s *Store) ShiftsByDate(ctx context.Context, companyID, date string) ([]StaffShift, error) {
	var shifts []StaffShift
	err := s.db.NewSelect().
		Model(&shifts).
		ColumnExpr("ss.*").
		ColumnExpr("sm.name AS staff_name").
		Join("JOIN staff_members AS sm ON sm.id = ss.staff_id").
		Where("ss.company_id = ?", companyID).
		Where("ss.date = ?", date).
		Order("ss.start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load shifts: %w", err)
	}
	return shifts, nil
}

func (s *Store) ListStaff(ctx context.Context, companyID, department string) ([]StaffMember, error) {
	var staff []StaffMember
	q := s.db.NewSelect().
		Model(&staff).
		Where("sm.company_id = ?", companyID).
		Where("sm.is_active = TRUE").
		Order("sm.name ASC")
	if strings.TrimSpace(department) != "" {
		q = q.Where("sm.department ILIKE ?", strings.TrimSpace(department))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("load staff: %w", err)
	}
	return staff, nil
}

func (s *Store) PopularMenuItems(ctx context.Context, companyID string, limit int) ([]MenuItem, error) {
	var items []MenuItem
	err := s.db.NewSelect().
		Model(&items).
		Where("mi.company_id = ?", companyID).
		Where("mi.is_active = TRUE").
		Order("order_count DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load popular items: %w", err)
	}
	return items, nil
}

func (s *Store) Overview(ctx context.Context, companyID, date string) (DailyOverview, error) {
	overview := DailyOverview{Date: date}

	reservations, err := s.ReservationsByDate(ctx, companyID, date)
	if err != nil {
		return DailyOverview{}, err
	}
	overview.ReservationCount = len(reservations)
	for _, r := range reservations {
		overview.GuestCount += r.PartySize
	}

	shifts, err := s.ShiftsByDate(ctx, companyID, date)
	if err != nil {
		return DailyOverview{}, err
	}
	overview.StaffOnShift = len(shifts)

	lowStock, err := s.LowStock(ctx, companyID, 60)
	if err != nil {
		return DailyOverview{}, err
	}
	overview.LowStockItems = len(lowStock)

	return overview, nil
}

func candidates(tables []Table) []booking.Candidate {
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

func occupied(reservations []Reservation) []booking.Occupied {
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
