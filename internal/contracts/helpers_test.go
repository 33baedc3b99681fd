package contracts

import "github.com/roach88/objkernel/internal/values"

// sliceIterator is a self-cursoring iterator over a fixed list that
// records the order of contract calls.
type sliceIterator struct {
	items []values.Value
	pos   int
	calls []string
}

func (it *sliceIterator) Type() values.Type { return values.ObjectType }

func (it *sliceIterator) Current() values.Value {
	it.calls = append(it.calls, "current")
	return it.items[it.pos]
}

func (it *sliceIterator) Key() values.Value {
	it.calls = append(it.calls, "key")
	return values.Int(it.pos)
}

func (it *sliceIterator) Next() {
	it.calls = append(it.calls, "next")
	it.pos++
}

func (it *sliceIterator) Rewind() {
	it.calls = append(it.calls, "rewind")
	it.pos = 0
}

func (it *sliceIterator) Valid() bool {
	it.calls = append(it.calls, "valid")
	return it.pos < len(it.items)
}

// sliceAggregate hands out a fresh sliceIterator per call.
type sliceAggregate struct {
	items []values.Value
	err   error
	nilIt bool
}

func (a *sliceAggregate) Type() values.Type { return values.ObjectType }

func (a *sliceAggregate) GetIterator() (Iterator, error) {
	if a.err != nil {
		return nil, a.err
	}
	if a.nilIt {
		return nil, nil
	}
	return &sliceIterator{items: a.items}, nil
}

// recordingMap is an ArrayAccess + Countable + Stringable value backed by
// a native array that records which offset methods were called.
type recordingMap struct {
	data  *values.Array
	calls []string
}

func newRecordingMap() *recordingMap {
	return &recordingMap{data: values.NewArray()}
}

func (m *recordingMap) Type() values.Type { return values.ObjectType }

func (m *recordingMap) ClassName() string { return "RecordingMap" }

func (m *recordingMap) OffsetExists(offset values.Value) bool {
	m.calls = append(m.calls, "exists")
	return m.data.Contains(offset)
}

func (m *recordingMap) OffsetGet(offset values.Value) values.Value {
	m.calls = append(m.calls, "get")
	v, _ := m.data.Get(offset)
	return v
}

func (m *recordingMap) OffsetSet(offset, value values.Value) {
	m.calls = append(m.calls, "set")
	if values.IsNull(offset) {
		m.data.Append(value)
		return
	}
	_ = m.data.Set(offset, value)
}

func (m *recordingMap) OffsetUnset(offset values.Value) {
	m.calls = append(m.calls, "unset")
	m.data.Unset(offset)
}

func (m *recordingMap) Count() int64 { return int64(m.data.Len()) }

func (m *recordingMap) String() string { return "RecordingMap" }
