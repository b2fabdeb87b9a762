package registry

import (
	"slices"

	"github.com/alphadose/haxmap"
)

// Registry is a concurrent map of live values keyed by id.
type Registry[T any] interface {
	Get(id string) (T, bool)
	Add(id string, value T)
	GetOrAdd(id string, value func() T) (T, bool)
	Del(id string)
	Len() int
	IDs() []string
}

type registry[T any] struct {
	values *haxmap.Map[string, T]
}

func New[T any]() Registry[T] {
	return &registry[T]{
		values: haxmap.New[string, T](),
	}
}

func (r *registry[T]) Get(id string) (T, bool) {
	return r.values.Get(id)
}

func (r *registry[T]) Add(id string, value T) {
	r.values.Set(id, value)
}

func (r *registry[T]) GetOrAdd(id string, valueFn func() T) (T, bool) {
	return r.values.GetOrCompute(id, valueFn)
}

func (r *registry[T]) Del(id string) {
	r.values.Del(id)
}

func (r *registry[T]) Len() int {
	return int(r.values.Len())
}

// IDs returns the registered ids in sorted order.
func (r *registry[T]) IDs() []string {
	ids := make([]string, 0, r.values.Len())
	r.values.ForEach(func(id string, _ T) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)
	return ids
}
