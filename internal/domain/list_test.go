package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListFilter_Normalize(t *testing.T) {
	f := ListFilter{Limit: 0, Offset: -3}
	f.Normalize()
	assert.Equal(t, 50, f.Limit)
	assert.Equal(t, 0, f.Offset)

	f = ListFilter{Limit: 10_000}
	f.Normalize()
	assert.Equal(t, MaxLimit, f.Limit)

	assert.Equal(t, "-date", DefaultListFilter().OrderBy)
}
