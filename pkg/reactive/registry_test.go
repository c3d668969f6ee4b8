package reactive

import (
	"strings"
	"testing"
)

func TestGetOrCreate_Idempotent(t *testing.T) {
	reg := NewRegistry()

	factoryCalls := 0
	first, err := GetOrCreate(reg, "counter", func() int {
		factoryCalls++
		return 10
	})
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	second, err := GetOrCreate(reg, "counter", func() int {
		factoryCalls++
		return 99
	})
	if err != nil {
		t.Fatalf("Second GetOrCreate failed: %v", err)
	}

	if first != second {
		t.Error("Expected the same instance for the same identity")
	}
	if factoryCalls != 1 {
		t.Errorf("Expected factory to run once, got %d", factoryCalls)
	}
	if second.Value() != 10 {
		t.Errorf("Expected original value 10, got %d", second.Value())
	}
}

func TestNew_GeneratesUniqueKeys(t *testing.T) {
	reg := NewRegistry()

	a, _ := New(reg, func() int { return 1 })
	b, _ := New(reg, func() int { return 2 })

	if a.Identity() == b.Identity() {
		t.Error("Expected distinct identities for generated keys")
	}
	if reg.Len() != 2 {
		t.Errorf("Expected 2 instances, got %d", reg.Len())
	}
}

func TestSameKeyDifferentTypes_AreDistinct(t *testing.T) {
	reg := NewRegistry()

	n, _ := GetOrCreate(reg, "shared", func() int { return 1 })
	s, _ := GetOrCreate(reg, "shared", func() string { return "x" })

	if n.Identity() == s.Identity() {
		t.Error("Expected type to be part of identity")
	}
	if reg.Len() != 2 {
		t.Errorf("Expected 2 instances, got %d", reg.Len())
	}
}

func TestGetByKey_ReturnsExisting(t *testing.T) {
	reg := NewRegistry()
	created, _ := GetOrCreate(reg, "counter", func() int { return 7 })

	found, err := GetByKey[int](reg, "counter")
	if err != nil {
		t.Fatalf("GetByKey failed: %v", err)
	}
	if found != created {
		t.Error("Expected GetByKey to return the created instance")
	}
}

func TestGetByKey_NotFound(t *testing.T) {
	reg := NewRegistry()

	_, err := GetByKey[int](reg, "missing")
	if err == nil {
		t.Fatal("Expected NotFoundError")
	}
	notFound, ok := err.(*NotFoundError)
	if !ok {
		t.Fatalf("Expected NotFoundError, got %T", err)
	}
	if notFound.Identity.Key != "missing" {
		t.Errorf("Expected key in error, got %v", notFound.Identity)
	}
}

func TestRemoveByIdentity(t *testing.T) {
	reg := NewRegistry()
	n, _ := GetOrCreate(reg, "n", func() int { return 0 })

	if !reg.RemoveByIdentity(n.Identity()) {
		t.Error("Expected removal to report true")
	}
	if reg.RemoveByIdentity(n.Identity()) {
		t.Error("Expected second removal to report false")
	}
	if !n.IsDisposed() {
		t.Error("Expected holder disposed on removal")
	}
}

func TestRemoveByType(t *testing.T) {
	reg := NewRegistry()
	GetOrCreate(reg, "a", func() int { return 1 })
	GetOrCreate(reg, "b", func() int { return 2 })
	GetOrCreate(reg, "c", func() string { return "keep" })

	removed := RemoveByType[int](reg)

	if removed != 2 {
		t.Errorf("Expected 2 removed, got %d", removed)
	}
	if reg.Len() != 1 {
		t.Errorf("Expected 1 remaining, got %d", reg.Len())
	}
	if _, err := GetByKey[string](reg, "c"); err != nil {
		t.Errorf("String instance should survive: %v", err)
	}
}

// recordingMachine exposes its hook invocations to lifecycle tests.
type recordingMachine struct {
	disposed *bool
	replaced *int
}

func (m recordingMachine) OnValueReplaced(prev, next int, silent bool) {
	if m.replaced != nil {
		*m.replaced++
	}
}

func (m recordingMachine) DisposeMachine() { *m.disposed = true }

func (m recordingMachine) VariantTag() string { return "recording" }

func TestClearAll_RunsMachineHooks(t *testing.T) {
	reg := NewRegistry()
	disposed := false
	GetOrCreate(reg, "vm", func() int { return 0 },
		WithMachine[int](recordingMachine{disposed: &disposed}))
	GetOrCreate(reg, "plain", func() string { return "" })

	reg.ClearAll()

	if !disposed {
		t.Error("Expected machine dispose hook to run")
	}
	if reg.Len() != 0 {
		t.Errorf("Expected empty registry, got %d", reg.Len())
	}
}

func TestSnapshot_ReportsInstanceDetails(t *testing.T) {
	reg := NewRegistry()
	child, _ := GetOrCreate(reg, "child", func() int { return 5 })
	parent, _ := GetOrCreate(reg, "parent", func() string { return "hello" },
		WithRelated[string](child), WithAutoDispose[string](0))
	parent.AddListener(func() {})
	parent.AddReference("widget-1")

	infos := reg.Snapshot()
	if len(infos) != 2 {
		t.Fatalf("Expected 2 infos, got %d", len(infos))
	}

	var parentInfo *InstanceInfo
	for i := range infos {
		if infos[i].Identity.Key == "parent" {
			parentInfo = &infos[i]
		}
	}
	if parentInfo == nil {
		t.Fatal("Missing parent info")
	}
	if !parentInfo.HasListeners {
		t.Error("Expected HasListeners true")
	}
	if parentInfo.ReferenceCount != 1 {
		t.Errorf("Expected 1 reference, got %d", parentInfo.ReferenceCount)
	}
	if !parentInfo.AutoDispose {
		t.Error("Expected AutoDispose true")
	}
	if parentInfo.RelatedCount != 1 {
		t.Errorf("Expected 1 related, got %d", parentInfo.RelatedCount)
	}
	if !strings.Contains(parentInfo.ValuePreview, "hello") {
		t.Errorf("Expected preview to contain value, got %q", parentInfo.ValuePreview)
	}
}

func TestUpdateValue_DebugBypassRunsPropagation(t *testing.T) {
	reg := NewRegistry()
	n, _ := GetOrCreate(reg, "counter", func() int { return 1 })

	calls := 0
	n.AddListener(func() { calls++ })

	if err := reg.UpdateValue(n.Identity(), []byte("5")); err != nil {
		t.Fatalf("UpdateValue failed: %v", err)
	}
	if n.Value() != 5 {
		t.Errorf("Expected 5, got %d", n.Value())
	}
	if calls != 1 {
		t.Errorf("Expected 1 notification, got %d", calls)
	}

	// equality check still applies on the debug path
	if err := reg.UpdateValue(n.Identity(), []byte("5")); err != nil {
		t.Fatalf("UpdateValue failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected no notification for equal value, got %d", calls)
	}
}

func TestUpdateValue_UnknownIdentity(t *testing.T) {
	reg := NewRegistry()

	err := reg.UpdateValue(Identity{Type: "int", Key: "nope"}, []byte("1"))
	if err == nil {
		t.Fatal("Expected NotFoundError")
	}
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("Expected NotFoundError, got %T", err)
	}
}

func TestSetDefault_ReplacesProcessRegistry(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	SetDefault(nil)
	if Default() == original {
		t.Error("Expected a fresh registry")
	}

	custom := NewRegistry()
	SetDefault(custom)
	if Default() != custom {
		t.Error("Expected the custom registry")
	}
}
