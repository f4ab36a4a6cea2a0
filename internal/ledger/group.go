package ledger

// ordered is a map that remembers first-insertion order of its keys.
type ordered[K comparable, V any] struct {
	keys []K
	vals map[K]*V
}

func newOrdered[K comparable, V any]() *ordered[K, V] {
	return &ordered[K, V]{vals: make(map[K]*V)}
}

// at returns the value for k, creating it with init on first use.
func (o *ordered[K, V]) at(k K, init func() V) *V {
	if v, ok := o.vals[k]; ok {
		return v
	}
	v := init()
	o.keys = append(o.keys, k)
	o.vals[k] = &v
	return &v
}

func (o *ordered[K, V]) each(fn func(K, *V)) {
	for _, k := range o.keys {
		fn(k, o.vals[k])
	}
}

func (o *ordered[K, V]) len() int {
	return len(o.keys)
}
