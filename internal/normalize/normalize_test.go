package normalize

import "testing"

func TestTagName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"travel", "TRAVEL"},
		{" Travel ", "TRAVEL"},
		{"TRAVEL", "TRAVEL"},
		{"slow burn", "SLOW BURN"},
		{"  ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := TagName(tt.in); got != tt.want {
			t.Errorf("TagName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTagName_Idempotent(t *testing.T) {
	inputs := []string{"travel", " Rome Trip ", "ALREADY", "mixed Case"}
	for _, in := range inputs {
		once := TagName(in)
		twice := TagName(once)
		if once != twice {
			t.Errorf("TagName not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestTagNames_Dedupe(t *testing.T) {
	got := TagNames([]string{"travel", " TRAVEL ", "food", "", "  ", "Food"})
	want := []string{"TRAVEL", "FOOD"}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTagNames_Empty(t *testing.T) {
	if got := TagNames(nil); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestUsername(t *testing.T) {
	if got := Username(" alice "); got != "alice" {
		t.Errorf("got %q, want alice", got)
	}
	// Case is preserved: usernames are case-sensitive identity.
	if got := Username("Alice"); got != "Alice" {
		t.Errorf("got %q, want Alice", got)
	}
}
