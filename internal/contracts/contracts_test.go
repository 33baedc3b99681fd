package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/objkernel/internal/values"
)

func TestSatisfies(t *testing.T) {
	assert.Equal(t, []string{NameTraversable, NameIterator}, Satisfies(&sliceIterator{}))
	assert.Equal(t, []string{NameTraversable, NameIteratorAggregate}, Satisfies(&sliceAggregate{}))
	assert.Equal(t, []string{NameArrayAccess, NameCountable, NameStringable}, Satisfies(newRecordingMap()))
	assert.Empty(t, Satisfies(values.NewObject()))
	assert.Empty(t, Satisfies(values.NewArray()))
}

func TestImplements(t *testing.T) {
	assert.True(t, Implements(&sliceIterator{}, NameTraversable))
	assert.False(t, Implements(values.Int(1), NameCountable))
	assert.False(t, Implements(newRecordingMap(), "NoSuchContract"))
}

func TestIsTraversable(t *testing.T) {
	assert.True(t, IsTraversable(&sliceAggregate{}))
	assert.False(t, IsTraversable(values.NewArray()))
}
