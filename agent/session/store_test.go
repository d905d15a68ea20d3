package session

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func TestNewSessionSuffixShape(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		suffix := newSessionSuffix()
		if len(suffix) != 12 {
			t.Fatalf("suffix length = %d, want 12", len(suffix))
		}
		if strings.ContainsAny(suffix, "-") {
			t.Fatalf("suffix contains a dash: %q", suffix)
		}
		for _, r := range suffix {
			if !strings.ContainsRune("0123456789abcdef", r) {
				t.Fatalf("suffix %q contains non-hex rune %q", suffix, r)
			}
		}
		if _, dup := seen[suffix]; dup {
			t.Fatalf("duplicate suffix %q", suffix)
		}
		seen[suffix] = struct{}{}
	}
}

func TestStoreIDPrefixes(t *testing.T) {
	public := NewStore(nil)
	if public.idPrefix != DefaultIDPrefix {
		t.Fatalf("default prefix = %q", public.idPrefix)
	}
	internal := NewStore(nil, WithIDPrefix(InternalIDPrefix))
	if internal.idPrefix != InternalIDPrefix {
		t.Fatalf("internal prefix = %q", internal.idPrefix)
	}
	ignored := NewStore(nil, WithIDPrefix("  "))
	if ignored.idPrefix != DefaultIDPrefix {
		t.Fatalf("blank prefix must be ignored, got %q", ignored.idPrefix)
	}
}

// Replay only ever contains user and assistant turns: system openings and
// tool results stay out of later context windows.
func TestReplayMessagesFiltersRoles(t *testing.T) {
	logs := []Log{
		{Role: "system", Content: "[Phone rings - customer picks up]"},
		{Role: "user", Content: "do you have a patio?"},
		{Role: "tool", Content: "patio open till 22:00"},
		{Role: "assistant", Content: "Yes, until 10pm."},
		{Role: "user", Content: "great, book it"},
	}

	got := replayMessages(logs, DefaultReplayLimit)
	if len(got) != 3 {
		t.Fatalf("expected 3 replayable messages, got %d", len(got))
	}
	wantRoles := []schema.RoleType{schema.User, schema.Assistant, schema.User}
	for i, m := range got {
		if m.Role != wantRoles[i] {
			t.Fatalf("message %d role = %s, want %s", i, m.Role, wantRoles[i])
		}
	}
	if got[0].Content != "do you have a patio?" || got[1].Content != "Yes, until 10pm." {
		t.Fatalf("replay out of order: %q then %q", got[0].Content, got[1].Content)
	}
}

func TestReplayMessagesKeepsMostRecentWithinLimit(t *testing.T) {
	logs := []Log{
		{Role: "user", Content: "one"},
		{Role: "assistant", Content: "two"},
		{Role: "user", Content: "three"},
		{Role: "assistant", Content: "four"},
	}

	got := replayMessages(logs, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Content != "three" || got[1].Content != "four" {
		t.Fatalf("limit must keep the newest turns, got %q then %q", got[0].Content, got[1].Content)
	}
}
