package ruleset

import "testing"

func noopHandler() Handler {
	return Handler{
		Validator: func(Context, map[string]any) error { return nil },
		Applier:   func(Context, map[string]any) (map[string]any, error) { return map[string]any{}, nil },
	}
}

func TestRegisterRejectsDuplicateType(t *testing.T) {
	r := New()
	if err := r.Register("work", noopHandler()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register("work", noopHandler()); err == nil {
		t.Fatalf("expected error registering duplicate action type")
	}
}

func TestGetUnknownTypeReturnsFalse(t *testing.T) {
	r := New()
	_, ok := r.Get("nonexistent")
	if ok {
		t.Fatalf("expected ok=false for unregistered type")
	}
}

func TestTypesReturnsSortedRegisteredTypes(t *testing.T) {
	r := New()
	for _, typ := range []string{"buy_item", "work", "cancel_listing"} {
		if err := r.Register(typ, noopHandler()); err != nil {
			t.Fatalf("register %s: %v", typ, err)
		}
	}
	got := r.Types()
	want := []string{"buy_item", "cancel_listing", "work"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("types[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
