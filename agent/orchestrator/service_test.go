package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/thanarat-h/frontdesk/agent/contract"
)

/* ------------------------------- fakes ------------------------------- */

type memorySessionStore struct {
	logs       map[string][]contractx.StoredMessage
	nextID     int
	appendErr  error
	historyErr error
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{logs: map[string][]contractx.StoredMessage{}}
}

func (m *memorySessionStore) ResolveSession(_ context.Context, _ string, sessionID string) (string, error) {
	if sessionID != "" {
		if _, ok := m.logs[sessionID]; ok {
			return sessionID, nil
		}
	}
	m.nextID++
	id := fmt.Sprintf("session-%012d", m.nextID)
	m.logs[id] = nil
	return id, nil
}

func (m *memorySessionStore) History(_ context.Context, _ string, sessionID string, limit int) ([]*schema.Message, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	stored := m.logs[sessionID]
	var out []*schema.Message
	for _, msg := range stored {
		switch msg.Role {
		case "user":
			out = append(out, schema.UserMessage(msg.Content))
		case "assistant":
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memorySessionStore) Append(_ context.Context, _ string, sessionID string, msg contractx.StoredMessage) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.logs[sessionID] = append(m.logs[sessionID], msg)
	return nil
}

func (m *memorySessionStore) ListSessions(context.Context, string, int) ([]contractx.SessionInfo, error) {
	return nil, nil
}

func (m *memorySessionStore) SessionHistory(_ context.Context, _ string, sessionID string) ([]contractx.StoredMessage, error) {
	return m.logs[sessionID], nil
}

type fakeSupervisor struct {
	decisions []contractx.RoutingDecision
	calls     int
	seen      [][]*schema.Message
	err       error
}

func (f *fakeSupervisor) Route(_ context.Context, history []*schema.Message) (contractx.RoutingDecision, error) {
	f.seen = append(f.seen, history)
	if f.err != nil {
		return contractx.RoutingDecision{}, f.err
	}
	d := f.decisions[f.calls%len(f.decisions)]
	f.calls++
	return d, nil
}

type fakeSpecialist struct {
	result contractx.SpecialistResult
	calls  int
	err    error
}

func (f *fakeSpecialist) Run(context.Context, []*schema.Message) (contractx.SpecialistResult, error) {
	f.calls++
	if f.err != nil {
		return contractx.SpecialistResult{}, f.err
	}
	return f.result, nil
}

type fakeRegistry struct {
	supervisor  *fakeSupervisor
	reservation *fakeSpecialist
	information *fakeSpecialist
	internal    *fakeSpecialist
}

func (f *fakeRegistry) Supervisor() contractx.Supervisor  { return f.supervisor }
func (f *fakeRegistry) Reservation() contractx.Specialist { return f.reservation }
func (f *fakeRegistry) Information() contractx.Specialist { return f.information }
func (f *fakeRegistry) Internal(string) (contractx.Specialist, error) {
	if f.internal == nil {
		return nil, errors.New("no internal agent configured")
	}
	return f.internal, nil
}

func selfRegistry(message string) *fakeRegistry {
	return &fakeRegistry{
		supervisor:  &fakeSupervisor{decisions: []contractx.RoutingDecision{{Route: contractx.RouteSelf, Message: message}}},
		reservation: &fakeSpecialist{},
		information: &fakeSpecialist{},
	}
}

func newTestService(t *testing.T, store contractx.SessionStore, agents contractx.Registry) *Service {
	t.Helper()
	s, err := New(store, agents, Config{CompanyID: "company-1"})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

/* ------------------------------- tests ------------------------------- */

func TestHandleTurnSelfRoute(t *testing.T) {
	store := newMemorySessionStore()
	agents := selfRegistry("Hi there! How can I help?")
	s := newTestService(t, store, agents)

	res, err := s.HandleTurn(context.Background(), contractx.TurnRequest{Message: "hi there"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Reply != "Hi there! How can I help?" {
		t.Fatalf("unexpected reply %q", res.Reply)
	}
	if !res.CallActive {
		t.Fatal("self route must keep the call active")
	}
	if agents.reservation.calls != 0 || agents.information.calls != 0 {
		t.Fatal("no specialist should run on a self route")
	}
	if len(res.ToolsUsed) != 0 {
		t.Fatalf("tools_used should be empty, got %v", res.ToolsUsed)
	}
}

func TestHandleTurnReservationRoute(t *testing.T) {
	store := newMemorySessionStore()
	agents := &fakeRegistry{
		supervisor:  &fakeSupervisor{decisions: []contractx.RoutingDecision{{Route: contractx.RouteReservation}}},
		reservation: &fakeSpecialist{result: contractx.SpecialistResult{Reply: "Booked!", ToolsUsed: []string{"create_reservation"}}},
		information: &fakeSpecialist{},
	}
	s := newTestService(t, store, agents)

	res, err := s.HandleTurn(context.Background(), contractx.TurnRequest{Message: "table for two at seven"})
	if err != nil {
		t.Fatal(err)
	}
	if agents.reservation.calls != 1 {
		t.Fatalf("reservation specialist calls = %d", agents.reservation.calls)
	}
	if res.Reply != "Booked!" {
		t.Fatalf("unexpected reply %q", res.Reply)
	}
	if len(res.ToolsUsed) != 1 || res.ToolsUsed[0] != "create_reservation" {
		t.Fatalf("tools_used = %v", res.ToolsUsed)
	}
}

func TestHandleTurnFarewellEndsCall(t *testing.T) {
	store := newMemorySessionStore()
	agents := &fakeRegistry{
		supervisor:  &fakeSupervisor{decisions: []contractx.RoutingDecision{{Route: contractx.RouteFarewell, Message: "Goodbye!"}}},
		reservation: &fakeSpecialist{},
		information: &fakeSpecialist{},
	}
	s := newTestService(t, store, agents)

	res, err := s.HandleTurn(context.Background(), contractx.TurnRequest{Message: "bye now"})
	if err != nil {
		t.Fatal(err)
	}
	if res.CallActive {
		t.Fatal("farewell must end the call")
	}
	if res.Reply != "Goodbye!" {
		t.Fatalf("unexpected reply %q", res.Reply)
	}
	if agents.reservation.calls+agents.information.calls != 0 {
		t.Fatal("no specialist should run on farewell")
	}
}

func TestHandleTurnFarewellDefaultMessage(t *testing.T) {
	store := newMemorySessionStore()
	agents := &fakeRegistry{
		supervisor:  &fakeSupervisor{decisions: []contractx.RoutingDecision{{Route: contractx.RouteFarewell}}},
		reservation: &fakeSpecialist{},
		information: &fakeSpecialist{},
	}
	s := newTestService(t, store, agents)

	res, err := s.HandleTurn(context.Background(), contractx.TurnRequest{Message: "thanks, that's all"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Reply != DefaultFarewell {
		t.Fatalf("expected the default farewell, got %q", res.Reply)
	}
}

// A second turn must replay the first turn's exchange to the supervisor.
func TestHandleTurnReplaysHistory(t *testing.T) {
	store := newMemorySessionStore()
	agents := selfRegistry("Sure thing.")
	s := newTestService(t, store, agents)

	first, err := s.HandleTurn(context.Background(), contractx.TurnRequest{Message: "do you have a patio?"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.HandleTurn(context.Background(), contractx.TurnRequest{
		Message: "great, see you then", SessionID: first.SessionID,
	}); err != nil {
		t.Fatal(err)
	}

	second := agents.supervisor.seen[1]
	if len(second) != 3 {
		t.Fatalf("expected 3 replayed messages, got %d", len(second))
	}
	if second[0].Content != "do you have a patio?" || second[1].Content != "Sure thing." {
		t.Fatalf("history out of order: %q then %q", second[0].Content, second[1].Content)
	}
	if second[2].Content != "great, see you then" {
		t.Fatalf("current message must be last, got %q", second[2].Content)
	}
}

func TestHandleTurnSpecialistFailureBecomesApology(t *testing.T) {
	store := newMemorySessionStore()
	agents := &fakeRegistry{
		supervisor:  &fakeSupervisor{decisions: []contractx.RoutingDecision{{Route: contractx.RouteInformation}}},
		reservation: &fakeSpecialist{},
		information: &fakeSpecialist{err: errors.New("model timeout")},
	}
	s := newTestService(t, store, agents)

	res, err := s.HandleTurn(context.Background(), contractx.TurnRequest{Message: "what are your hours?"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Reply != ApologyReply {
		t.Fatalf("expected apology, got %q", res.Reply)
	}
	if !res.CallActive {
		t.Fatal("a failed turn must not end the call")
	}
}

func TestHandleTurnRoutingFailureBecomesApology(t *testing.T) {
	store := newMemorySessionStore()
	agents := &fakeRegistry{
		supervisor:  &fakeSupervisor{err: errors.New("model unavailable")},
		reservation: &fakeSpecialist{},
		information: &fakeSpecialist{},
	}
	s := newTestService(t, store, agents)

	res, err := s.HandleTurn(context.Background(), contractx.TurnRequest{Message: "hello?"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Reply != ApologyReply {
		t.Fatalf("expected apology, got %q", res.Reply)
	}
}

func TestHandleTurnLoggingFailureDoesNotFailTurn(t *testing.T) {
	store := newMemorySessionStore()
	store.appendErr = errors.New("database down")
	agents := selfRegistry("Hello!")
	s := newTestService(t, store, agents)

	res, err := s.HandleTurn(context.Background(), contractx.TurnRequest{Message: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Reply != "Hello!" {
		t.Fatalf("unexpected reply %q", res.Reply)
	}
}

func TestHandleTurnRejectsEmptyMessage(t *testing.T) {
	s := newTestService(t, newMemorySessionStore(), selfRegistry("x"))
	if _, err := s.HandleTurn(context.Background(), contractx.TurnRequest{Message: "   "}); err == nil {
		t.Fatal("expected empty message to be rejected")
	}
}

func TestHandleTurnPersistsBothSides(t *testing.T) {
	store := newMemorySessionStore()
	s := newTestService(t, store, selfRegistry("Hi!"))

	res, err := s.HandleTurn(context.Background(), contractx.TurnRequest{
		Message: "hello", InputType: "voice", CustomerPhone: "555-0103",
	})
	if err != nil {
		t.Fatal(err)
	}
	stored := store.logs[res.SessionID]
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored messages, got %d", len(stored))
	}
	if stored[0].Role != "user" || stored[0].InputType != "voice" {
		t.Fatalf("user message stored wrong: %+v", stored[0])
	}
	if stored[0].CustomerPhone != "555-0103" {
		t.Fatalf("customer phone not persisted: %+v", stored[0])
	}
	if stored[1].Role != "assistant" || stored[1].Content != "Hi!" {
		t.Fatalf("assistant message stored wrong: %+v", stored[1])
	}
}

func TestStartCallInjectsRingLine(t *testing.T) {
	store := newMemorySessionStore()
	agents := selfRegistry("Thank you for calling Bella Vista!")
	s := newTestService(t, store, agents)

	res, err := s.StartCall(context.Background(), contractx.TurnRequest{})
	if err != nil {
		t.Fatal(err)
	}
	seen := agents.supervisor.seen[0]
	if seen[len(seen)-1].Content != StartCallLine {
		t.Fatalf("expected the ring line, got %q", seen[len(seen)-1].Content)
	}
	if !strings.Contains(res.Reply, "Bella Vista") {
		t.Fatalf("unexpected greeting %q", res.Reply)
	}
}

// tools_used reports only the current turn, never earlier ones.
func TestToolsUsedResetsEachTurn(t *testing.T) {
	store := newMemorySessionStore()
	agents := &fakeRegistry{
		supervisor: &fakeSupervisor{decisions: []contractx.RoutingDecision{
			{Route: contractx.RouteReservation},
			{Route: contractx.RouteSelf, Message: "Anything else?"},
		}},
		reservation: &fakeSpecialist{result: contractx.SpecialistResult{Reply: "Done", ToolsUsed: []string{"create_reservation"}}},
		information: &fakeSpecialist{},
	}
	s := newTestService(t, store, agents)

	first, err := s.HandleTurn(context.Background(), contractx.TurnRequest{Message: "book me in"})
	if err != nil {
		t.Fatal(err)
	}
	if len(first.ToolsUsed) != 1 {
		t.Fatalf("first turn tools = %v", first.ToolsUsed)
	}
	second, err := s.HandleTurn(context.Background(), contractx.TurnRequest{Message: "thanks", SessionID: first.SessionID})
	if err != nil {
		t.Fatal(err)
	}
	if len(second.ToolsUsed) != 0 {
		t.Fatalf("second turn tools must be empty, got %v", second.ToolsUsed)
	}
}

func TestInternalServiceSkipsRouting(t *testing.T) {
	store := newMemorySessionStore()
	agents := &fakeRegistry{
		supervisor:  &fakeSupervisor{decisions: []contractx.RoutingDecision{{Route: contractx.RouteSelf}}},
		reservation: &fakeSpecialist{},
		information: &fakeSpecialist{},
		internal:    &fakeSpecialist{result: contractx.SpecialistResult{Reply: "12 covers tonight.", ToolsUsed: []string{"get_todays_reservations"}}},
	}
	svc, err := NewInternal(store, agents, "company-1")
	if err != nil {
		t.Fatal(err)
	}

	res, err := svc.HandleTurn(context.Background(), "Maria", contractx.TurnRequest{Message: "how busy are we tonight?", CustomerPhone: "555-0104"})
	if err != nil {
		t.Fatal(err)
	}
	if agents.supervisor.calls != 0 {
		t.Fatal("internal turns must not touch the supervisor")
	}
	if stored := store.logs[res.SessionID]; len(stored) != 2 || stored[0].CustomerPhone != "555-0104" {
		t.Fatalf("staff message stored wrong: %+v", stored)
	}
	if res.Reply != "12 covers tonight." {
		t.Fatalf("unexpected reply %q", res.Reply)
	}
	if len(res.ToolsUsed) != 1 {
		t.Fatalf("tools_used = %v", res.ToolsUsed)
	}
}

func TestInternalServiceFailureBecomesApology(t *testing.T) {
	store := newMemorySessionStore()
	agents := &fakeRegistry{
		supervisor:  &fakeSupervisor{decisions: []contractx.RoutingDecision{{Route: contractx.RouteSelf}}},
		reservation: &fakeSpecialist{},
		information: &fakeSpecialist{},
		internal:    &fakeSpecialist{err: errors.New("model down")},
	}
	svc, err := NewInternal(store, agents, "company-1")
	if err != nil {
		t.Fatal(err)
	}

	res, err := svc.HandleTurn(context.Background(), "Maria", contractx.TurnRequest{Message: "status?"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Reply != ApologyReply {
		t.Fatalf("expected apology, got %q", res.Reply)
	}
}
