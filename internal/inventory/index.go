package inventory

// Index maps VM or host keys to values. Lookups are exact first. A key
// without a datacenter resolves to the first entry with that source and
// name, a key without a source to the first entry with that name, and an
// entry stored without a datacenter matches a key carrying any.
type Index[T any] struct {
	exact    map[Key]T
	bySource map[Key]T
	byName   map[string]T
}

func NewIndex[T any]() *Index[T] {
	return &Index[T]{
		exact:    make(map[Key]T),
		bySource: make(map[Key]T),
		byName:   make(map[string]T),
	}
}

// Add stores v under key. It returns false and keeps the existing value
// when the exact key is already present.
func (x *Index[T]) Add(key Key, v T) bool {
	if _, dup := x.exact[key]; dup {
		return false
	}
	x.exact[key] = v
	loose := Key{Source: key.Source, Name: key.Name}
	if _, ok := x.bySource[loose]; !ok {
		x.bySource[loose] = v
	}
	if _, ok := x.byName[key.Name]; !ok {
		x.byName[key.Name] = v
	}
	return true
}

func (x *Index[T]) Get(key Key) (T, bool) {
	if v, ok := x.exact[key]; ok {
		return v, true
	}
	if key.Datacenter != "" {
		v, ok := x.exact[Key{Source: key.Source, Name: key.Name}]
		return v, ok
	}
	if key.Source == "" {
		v, ok := x.byName[key.Name]
		return v, ok
	}
	v, ok := x.bySource[Key{Source: key.Source, Name: key.Name}]
	return v, ok
}

func (x *Index[T]) Len() int { return len(x.exact) }
