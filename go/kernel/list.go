package kernel

// taskList is the circular scheduling ring. Tasks are linked through
// their own next/prev fields.
type taskList struct {
	head *Task
	size int
}

func (l *taskList) Len() int { return l.size }

// Append links t in at the tail.
func (l *taskList) Append(t *Task) {
	if t.next != nil || t.prev != nil {
		panic("task " + t.String() + " is already linked")
	}
	if l.head == nil {
		t.next, t.prev = t, t
		l.head = t
	} else {
		tail := l.head.prev
		t.prev, t.next = tail, l.head
		tail.next = t
		l.head.prev = t
	}
	l.size++
}

func (l *taskList) Remove(t *Task) {
	if t.next == nil {
		panic("task " + t.String() + " is not linked")
	}
	if t.next == t {
		l.head = nil
	} else {
		t.prev.next = t.next
		t.next.prev = t.prev
		if l.head == t {
			l.head = t.next
		}
	}
	t.next, t.prev = nil, nil
	l.size--
}

// Each walks the ring once starting at the head. Returning false stops
// the walk. fn must not link or unlink tasks.
func (l *taskList) Each(fn func(t *Task) bool) {
	if l.head == nil {
		return
	}
	for t := l.head; ; t = t.next {
		if !fn(t) || t.next == l.head {
			return
		}
	}
}
