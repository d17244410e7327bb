package content

// Queue is the work list of fields still to be encoded.
//
// Filters receive the live queue and may push fields to its front, which
// makes the traversal a fixed-point expansion: pushed fields are filtered
// in turn before the rest of the original object.
type Queue struct {
	items []Field
}

func newQueue(fields Fields) *Queue {
	return &Queue{items: append([]Field(nil), fields...)}
}

// Len returns the number of pending fields.
func (q *Queue) Len() int {
	return len(q.items)
}

// PushFront inserts fields at the front of the queue, keeping their order:
// the first argument is the next field to be encoded.
func (q *Queue) PushFront(fields ...Field) {
	for i := len(fields) - 1; i >= 0; i-- {
		q.unshift(fields[i])
	}
}

// PushBack appends fields after every pending field.
func (q *Queue) PushBack(fields ...Field) {
	q.items = append(q.items, fields...)
}

func (q *Queue) unshift(f Field) {
	q.items = append(q.items, Field{})
	copy(q.items[1:], q.items)
	q.items[0] = f
}

func (q *Queue) shift() (Field, bool) {
	if len(q.items) == 0 {
		return Field{}, false
	}
	f := q.items[0]
	q.items[0] = Field{}
	q.items = q.items[1:]
	return f, true
}
