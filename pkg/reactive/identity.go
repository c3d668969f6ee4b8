package reactive

import (
	"reflect"

	"github.com/google/uuid"
)

// Identity names a state instance. It is the pair of the declared value type
// and a key, and is immutable for the lifetime of the instance. The registry
// holds at most one instance per identity.
type Identity struct {
	// Type is the name of the value type the instance was created under.
	Type string
	// Key distinguishes instances of the same type. Defaults to a
	// process-unique token when the caller does not supply one.
	Key string
}

func (id Identity) String() string {
	return id.Type + "#" + id.Key
}

// NewKey returns a process-unique instance key.
func NewKey() string {
	return uuid.NewString()
}

// TypeName returns the registry type tag for T.
// The tag is captured once at creation time; related-state lookups scan
// stored tags rather than reflecting over live values.
func TypeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

// IdentityOf builds the identity a holder of type T would have under key.
func IdentityOf[T any](key string) Identity {
	return Identity{Type: TypeName[T](), Key: key}
}
