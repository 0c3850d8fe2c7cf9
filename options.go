package chainmap

import (
	"context"
	"fmt"
	"reflect"

	"golang.org/x/exp/event"
)

// ResizePolicy controls how entries are placed when the table grows.
type ResizePolicy int

const (
	// ResizeRedistribute relinks every entry into the bucket computed against
	// the new table length.
	ResizeRedistribute ResizePolicy = iota

	// ResizeExtend doubles the table and copies the bucket heads across
	// without moving any entry. Entries whose recomputed index falls into the
	// new half can no longer be found by key.
	ResizeExtend
)

var resizePolicyNames = map[ResizePolicy]string{
	ResizeRedistribute: "redistribute",
	ResizeExtend:       "extend",
}

func (p ResizePolicy) String() string {
	if s, ok := resizePolicyNames[p]; ok {
		return s
	}

	return fmt.Sprintf("ResizePolicy(%d)", int(p))
}

// ParseResizePolicy returns the policy for the given name.
func ParseResizePolicy(s string) (ResizePolicy, error) {
	for p, name := range resizePolicyNames {
		if name == s {
			return p, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown resize policy %q", ErrInvalidArgument, s)
}

// Option configures a Map.
type Option func(*options)

type options struct {
	name     string
	hasher   any
	equal    any
	policy   ResizePolicy
	exporter *event.Exporter
}

// WithHasher overrides the default key hasher. The function must be a
// Hasher[K] for the map's key type, otherwise it is ignored.
func WithHasher[K comparable](h Hasher[K]) Option {
	return func(o *options) {
		o.hasher = h
	}
}

// WithValueEqual overrides the equality used by ContainsValue. The default
// is reflect.DeepEqual.
func WithValueEqual[V any](eq func(a, b V) bool) Option {
	return func(o *options) {
		o.equal = eq
	}
}

// WithResizePolicy sets the policy applied when the table grows.
func WithResizePolicy(p ResizePolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithExporter sends resize logs and metrics to the given exporter.
func WithExporter(e *event.Exporter) Option {
	return func(o *options) {
		o.exporter = e
	}
}

// WithName labels the map's metrics and logs.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func (o *options) context() context.Context {
	ctx := context.Background()
	if o.exporter != nil {
		ctx = event.WithExporter(ctx, o.exporter)
	}

	return ctx
}

func hasherFrom[K comparable](v any) Hasher[K] {
	switch h := v.(type) {
	case Hasher[K]:
		if h != nil {
			return h
		}
	case func(K) uint64:
		if h != nil {
			return h
		}
	}

	return DefaultHasher[K]
}

func equalFrom[V any](v any) func(a, b V) bool {
	if eq, ok := v.(func(a, b V) bool); ok && eq != nil {
		return eq
	}

	return func(a, b V) bool {
		return reflect.DeepEqual(a, b)
	}
}
