package reactive

import "testing"

func TestUpdateState_NotifiesListeners(t *testing.T) {
	reg := NewRegistry()
	n, err := GetOrCreate(reg, "counter", func() int { return 0 })
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	calls := 0
	n.AddListener(func() { calls++ })

	n.UpdateState(1)

	if calls != 1 {
		t.Errorf("Expected 1 listener call, got %d", calls)
	}
	if n.Value() != 1 {
		t.Errorf("Expected value 1, got %d", n.Value())
	}
}

func TestUpdateState_SameValueIsNoOp(t *testing.T) {
	reg := NewRegistry()
	n, _ := GetOrCreate(reg, "counter", func() int { return 5 })

	calls := 0
	n.AddListener(func() { calls++ })

	n.UpdateState(5)

	if calls != 0 {
		t.Errorf("Expected 0 listener calls for same value, got %d", calls)
	}
}

func TestUpdateSilently_SkipsOwnListeners(t *testing.T) {
	reg := NewRegistry()
	n, _ := GetOrCreate(reg, "counter", func() int { return 0 })

	calls := 0
	n.AddListener(func() { calls++ })

	n.UpdateSilently(7)

	if calls != 0 {
		t.Errorf("Expected 0 listener calls for silent update, got %d", calls)
	}
	if n.Value() != 7 {
		t.Errorf("Expected value 7, got %d", n.Value())
	}
}

func TestTransformState(t *testing.T) {
	reg := NewRegistry()
	n, _ := GetOrCreate(reg, "counter", func() int { return 10 })

	n.TransformState(func(v int) int { return v * 2 })

	if n.Value() != 20 {
		t.Errorf("Expected 20, got %d", n.Value())
	}
}

func TestTransformStateSilently(t *testing.T) {
	reg := NewRegistry()
	n, _ := GetOrCreate(reg, "counter", func() int { return 10 })

	calls := 0
	n.AddListener(func() { calls++ })

	n.TransformStateSilently(func(v int) int { return v + 1 })

	if calls != 0 {
		t.Errorf("Expected 0 listener calls, got %d", calls)
	}
	if n.Value() != 11 {
		t.Errorf("Expected 11, got %d", n.Value())
	}
}

// Scenario: Listen returns the current value synchronously, fires on
// notifying mutations only, and silent updates still replace the value.
func TestListen_SingleSlot(t *testing.T) {
	reg := NewRegistry()
	x, _ := GetOrCreate(reg, "x", func() int { return 0 })

	var received []int
	initial := x.Listen(func(v int) { received = append(received, v) })

	if initial != 0 {
		t.Errorf("Expected Listen to return 0, got %d", initial)
	}

	x.UpdateState(1)
	if len(received) != 1 || received[0] != 1 {
		t.Errorf("Expected callback to receive [1], got %v", received)
	}

	x.UpdateSilently(2)
	if len(received) != 1 {
		t.Errorf("Expected no callback for silent update, got %v", received)
	}
	if x.Value() != 2 {
		t.Errorf("Expected value 2, got %d", x.Value())
	}
}

func TestListen_ReplacesPreviousCallback(t *testing.T) {
	reg := NewRegistry()
	x, _ := GetOrCreate(reg, "x", func() int { return 0 })

	firstCalls := 0
	secondCalls := 0
	x.Listen(func(int) { firstCalls++ })
	x.Listen(func(int) { secondCalls++ })

	x.UpdateState(1)

	if firstCalls != 0 {
		t.Errorf("Replaced callback should not fire, got %d calls", firstCalls)
	}
	if secondCalls != 1 {
		t.Errorf("Expected 1 call on active callback, got %d", secondCalls)
	}
}

func TestStopListening(t *testing.T) {
	reg := NewRegistry()
	x, _ := GetOrCreate(reg, "x", func() int { return 0 })

	calls := 0
	x.Listen(func(int) { calls++ })
	x.StopListening()

	x.UpdateState(1)

	if calls != 0 {
		t.Errorf("Expected no calls after StopListening, got %d", calls)
	}
}

func TestAddListener_RegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	n, _ := GetOrCreate(reg, "n", func() int { return 0 })

	var order []string
	n.AddListener(func() { order = append(order, "first") })
	n.AddListener(func() { order = append(order, "second") })
	n.AddListener(func() { order = append(order, "third") })

	n.UpdateState(1)

	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Errorf("Expected registration order, got %v", order)
	}
}

func TestAddListener_Unsubscribe(t *testing.T) {
	reg := NewRegistry()
	n, _ := GetOrCreate(reg, "n", func() int { return 0 })

	calls := 0
	unsub := n.AddListener(func() { calls++ })
	unsub()

	n.UpdateState(1)

	if calls != 0 {
		t.Errorf("Expected no calls after unsubscribe, got %d", calls)
	}
	if n.ListenerCount() != 0 {
		t.Errorf("Expected 0 listeners, got %d", n.ListenerCount())
	}
}

func TestDefaultEquals_DeepEqualFallback(t *testing.T) {
	reg := NewRegistry()
	n, _ := GetOrCreate(reg, "slice", func() []int { return []int{1, 2} })

	calls := 0
	n.AddListener(func() { calls++ })

	// equal slice contents: must be treated as a no-op
	n.UpdateState([]int{1, 2})
	if calls != 0 {
		t.Errorf("Expected no-op for deep-equal slice, got %d calls", calls)
	}

	n.UpdateState([]int{1, 2, 3})
	if calls != 1 {
		t.Errorf("Expected 1 call for changed slice, got %d", calls)
	}
}

func TestWithEquals_CustomComparison(t *testing.T) {
	type user struct {
		ID   int
		Name string
	}
	reg := NewRegistry()
	n, _ := GetOrCreate(reg, "user", func() user { return user{ID: 1, Name: "a"} },
		WithEquals[user](func(a, b user) bool { return a.ID == b.ID }))

	calls := 0
	n.AddListener(func() { calls++ })

	// same ID: equal under the custom comparison even though Name differs
	n.UpdateState(user{ID: 1, Name: "b"})
	if calls != 0 {
		t.Errorf("Expected no-op under custom equality, got %d calls", calls)
	}
}

func TestFrom_FindsRelatedByType(t *testing.T) {
	reg := NewRegistry()
	count, _ := GetOrCreate(reg, "count", func() int { return 42 })
	name, _ := GetOrCreate(reg, "name", func() string { return "cart" })
	parent, err := GetOrCreate(reg, "parent", func() bool { return true },
		WithRelated[bool](count, name))
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	got, err := From[int](parent)
	if err != nil {
		t.Fatalf("From[int] failed: %v", err)
	}
	if got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}

	s, err := From[string](parent)
	if err != nil {
		t.Fatalf("From[string] failed: %v", err)
	}
	if s != "cart" {
		t.Errorf("Expected %q, got %q", "cart", s)
	}
}

func TestFrom_KeyDisambiguation(t *testing.T) {
	reg := NewRegistry()
	a, _ := GetOrCreate(reg, "a", func() int { return 1 })
	b, _ := GetOrCreate(reg, "b", func() int { return 2 })
	parent, _ := GetOrCreate(reg, "parent", func() bool { return true },
		WithRelated[bool](a, b))

	got, err := From[int](parent, "b")
	if err != nil {
		t.Fatalf("From with key failed: %v", err)
	}
	if got != 2 {
		t.Errorf("Expected 2, got %d", got)
	}
}

func TestFrom_NotFoundListsAvailable(t *testing.T) {
	reg := NewRegistry()
	count, _ := GetOrCreate(reg, "count", func() int { return 1 })
	parent, _ := GetOrCreate(reg, "parent", func() bool { return true },
		WithRelated[bool](count))

	_, err := From[string](parent)
	if err == nil {
		t.Fatal("Expected RelatedStateNotFoundError")
	}
	notFound, ok := err.(*RelatedStateNotFoundError)
	if !ok {
		t.Fatalf("Expected RelatedStateNotFoundError, got %T", err)
	}
	if notFound.Requested != "string" {
		t.Errorf("Expected requested type string, got %q", notFound.Requested)
	}
	if len(notFound.Available) != 1 || notFound.Available[0] != "int" {
		t.Errorf("Expected available [int], got %v", notFound.Available)
	}
}

func TestDispose_MutationsBecomeNoOps(t *testing.T) {
	reg := NewRegistry()
	n, _ := GetOrCreate(reg, "n", func() int { return 1 })

	n.Dispose()

	if !n.IsDisposed() {
		t.Error("Expected holder to be disposed")
	}
	n.UpdateState(99)
	if n.Value() != 1 {
		t.Errorf("Expected value unchanged after dispose, got %d", n.Value())
	}
	if reg.Len() != 0 {
		t.Errorf("Expected empty registry, got %d", reg.Len())
	}
}

func TestOnDispose_RunsCleanupsInReverseOrder(t *testing.T) {
	reg := NewRegistry()
	n, _ := GetOrCreate(reg, "n", func() int { return 0 })

	var order []string
	n.OnDispose(func() { order = append(order, "first") })
	n.OnDispose(func() { order = append(order, "second") })

	n.Dispose()

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("Expected LIFO cleanup order, got %v", order)
	}
}
