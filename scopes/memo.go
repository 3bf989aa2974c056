package scopes

// Memo is a derived-slice cache keyed on scope version: the selector only
// re-derives when the scope's data reference was replaced, so consumers that
// compare references see a stable value between replacements.
type Memo[S, V any] struct {
	version  uint64
	hasValue bool
	value    V
	derive   func(S) V
}

func NewMemo[S, V any](derive func(S) V) *Memo[S, V] {
	return &Memo[S, V]{derive: derive}
}

func (m *Memo[S, V]) Get(scope *Scope[S]) V {
	version := scope.Version()
	if m.hasValue && version == m.version {
		return m.value
	}
	data, _ := scope.Data()
	m.value = m.derive(data)
	m.version = version
	m.hasValue = true
	return m.value
}
