// Package session persists the append-only conversation log and rebuilds
// the bounded replay window for each turn.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	contractx "github.com/thanarat-h/frontdesk/agent/contract"
)

const (
	// DefaultReplayLimit caps public-session replay.
	DefaultReplayLimit = 50
	// InternalReplayLimit caps internal-session replay.
	InternalReplayLimit = 30

	// DefaultIDPrefix marks public caller sessions, InternalIDPrefix marks
	// authenticated staff sessions.
	DefaultIDPrefix  = "session-"
	InternalIDPrefix = "internal-"
)

// Log is one persisted conversation message.
type Log struct {
	bun.BaseModel `bun:"table:conversation_logs,alias:cl"`

	ID            int64     `bun:"id,pk,autoincrement"`
	CompanyID     string    `bun:"company_id"`
	SessionID     string    `bun:"session_id"`
	Role          string    `bun:"role"`
	Content       string    `bun:"content"`
	InputType     string    `bun:"input_type,nullzero"`
	ToolName      string    `bun:"tool_name,nullzero"`
	LatencyMS     int       `bun:"latency_ms,nullzero"`
	CustomerPhone string    `bun:"customer_phone,nullzero"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:now()"`
}

var _ contractx.SessionStore = (*Store)(nil)

// Store is the bun-backed session log. Appends are expected to be
// best-effort by callers: a failed write must never block a reply.
type Store struct {
	db       *bun.DB
	idPrefix string
}

type StoreOption func(*Store)

// WithIDPrefix changes the prefix of freshly minted session IDs.
func WithIDPrefix(prefix string) StoreOption {
	return func(s *Store) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.idPrefix = trimmed
		}
	}
}

func NewStore(db *bun.DB, opts ...StoreOption) *Store {
	store := &Store{db: db, idPrefix: DefaultIDPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

// ResolveSession returns sessionID when it already has messages for the
// tenant; otherwise it mints a fresh ID. An unrecognized ID starts a new
// session rather than erroring.
func (s *Store) ResolveSession(ctx context.Context, companyID, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) != "" {
		exists, err := s.db.NewSelect().
			Model((*Log)(nil)).
			Where("cl.session_id = ?", sessionID).
			Where("cl.company_id = ?", companyID).
			Exists(ctx)
		if err != nil {
			return "", fmt.Errorf("check session: %w", err)
		}
		if exists {
			return sessionID, nil
		}
	}
	return s.idPrefix + newSessionSuffix(), nil
}

func newSessionSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// History rebuilds the replay window: only user and assistant roles are
// eligible; system and tool messages never re-enter a later turn's context.
func (s *Store) History(ctx context.Context, companyID, sessionID string, limit int) ([]*schema.Message, error) {
	if limit <= 0 {
		limit = DefaultReplayLimit
	}

	var logs []Log
	err := s.db.NewSelect().
		Model(&logs).
		Column("cl.role", "cl.content").
		Where("cl.session_id = ?", sessionID).
		Where("cl.company_id = ?", companyID).
		Where("cl.role IN (?)", bun.In([]string{"user", "assistant"})).
		Order("created_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return replayMessages(logs, limit), nil
}

// replayMessages maps stored logs to the model-facing replay window. Only
// user and assistant turns are eligible; system and tool entries never
// re-enter a later turn's context.
func replayMessages(logs []Log, limit int) []*schema.Message {
	messages := make([]*schema.Message, 0, len(logs))
	for _, l := range logs {
		switch l.Role {
		case "user":
			messages = append(messages, schema.UserMessage(l.Content))
		case "assistant":
			messages = append(messages, schema.AssistantMessage(l.Content, nil))
		}
	}
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages
}

func (s *Store) Append(ctx context.Context, companyID, sessionID string, msg contractx.StoredMessage) error {
	log := Log{
		CompanyID:     companyID,
		SessionID:     sessionID,
		Role:          msg.Role,
		Content:       msg.Content,
		InputType:     msg.InputType,
		ToolName:      msg.ToolName,
		LatencyMS:     msg.LatencyMS,
		CustomerPhone: msg.CustomerPhone,
	}
	if _, err := s.db.NewInsert().Model(&log).Exec(ctx); err != nil {
		return fmt.Errorf("append conversation log: %w", err)
	}
	return nil
}

func (s *Store) ListSessions(ctx context.Context, companyID string, limit int) ([]contractx.SessionInfo, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []struct {
		SessionID     string     `bun:"session_id"`
		StartedAt     *time.Time `bun:"started_at"`
		LastMessageAt *time.Time `bun:"last_message_at"`
		MessageCount  int        `bun:"message_count"`
		CustomerPhone string     `bun:"customer_phone"`
	}
	err := s.db.NewSelect().
		Model((*Log)(nil)).
		ColumnExpr("cl.session_id").
		ColumnExpr("MIN(cl.created_at) AS started_at").
		ColumnExpr("MAX(cl.created_at) AS last_message_at").
		ColumnExpr("COUNT(*) AS message_count").
		ColumnExpr("MAX(cl.customer_phone) AS customer_phone").
		Where("cl.company_id = ?", companyID).
		Group("cl.session_id").
		OrderExpr("MAX(cl.created_at) DESC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]contractx.SessionInfo, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, contractx.SessionInfo{
			SessionID:     row.SessionID,
			StartedAt:     row.StartedAt,
			LastMessageAt: row.LastMessageAt,
			MessageCount:  row.MessageCount,
			CustomerPhone: row.CustomerPhone,
		})
	}
	return sessions, nil
}

func (s *Store) SessionHistory(ctx context.Context, companyID, sessionID string) ([]contractx.StoredMessage, error) {
	var logs []Log
	err := s.db.NewSelect().
		Model(&logs).
		Where("cl.session_id = ?", sessionID).
		Where("cl.company_id = ?", companyID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session history: %w", err)
	}

	messages := make([]contractx.StoredMessage, 0, len(logs))
	for _, l := range logs {
		createdAt := l.CreatedAt
		messages = append(messages, contractx.StoredMessage{
			Role:          l.Role,
			Content:       l.Content,
			InputType:     l.InputType,
			ToolName:      l.ToolName,
			LatencyMS:     l.LatencyMS,
			CustomerPhone: l.CustomerPhone,
			Timestamp:     &createdAt,
		})
	}
	return messages, nil
}
