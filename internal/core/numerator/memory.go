package numerator

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Generator. It backs unit tests and the CLI preview;
// numbers do not survive a restart.
type Memory struct {
	mu       sync.Mutex
	counters map[string]int64
	recycled map[string][]string // company:docType -> sorted numbers
}

// NewMemory creates an empty in-memory generator.
func NewMemory() *Memory {
	return &Memory{
		counters: make(map[string]int64),
		recycled: make(map[string][]string),
	}
}

var _ Generator = (*Memory)(nil)

// Next implements Generator.
func (m *Memory) Next(_ context.Context, scope Scope, period time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pool := poolKey(scope)
	prefix := scope.PeriodPrefix(period)
	for i, number := range m.recycled[pool] {
		if strings.HasPrefix(number, prefix) {
			m.recycled[pool] = slices.Delete(m.recycled[pool], i, i+1)
			return number, nil
		}
	}

	key := scope.SequenceKey(period)
	m.counters[key]++
	return scope.Format(period, m.counters[key]), nil
}

// Recycle implements Generator.
func (m *Memory) Recycle(_ context.Context, scope Scope, number string) error {
	if _, err := scope.Parse(number); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pool := poolKey(scope)
	idx, found := slices.BinarySearchFunc(m.recycled[pool], number, compareNumbers)
	if found {
		return nil
	}
	m.recycled[pool] = slices.Insert(m.recycled[pool], idx, number)
	return nil
}

// Recycled returns a copy of the pool for scope, lowest first.
func (m *Memory) Recycled(scope Scope) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.recycled[poolKey(scope)])
}

// compareNumbers orders numbers numerically within a shared prefix,
// so "X-100000" sorts after "X-99999".
func compareNumbers(a, b string) int {
	if len(a) != len(b) {
		return cmp.Compare(len(a), len(b))
	}
	return strings.Compare(a, b)
}

func poolKey(scope Scope) string {
	return scope.CompanyID.String() + ":" + scope.DocType
}
