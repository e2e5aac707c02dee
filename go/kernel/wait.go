package kernel

import "fmt"

type WaitKind int

const (
	WaitChildExit WaitKind = iota + 1
	WaitResource
)

// WaitKey names a synchronization point. Tasks only wake from the queue
// they went to sleep on, so two keys never cross-wake.
type WaitKey struct {
	Kind WaitKind
	ID   int
}

func (k WaitKey) String() string {
	switch k.Kind {
	case WaitChildExit:
		return fmt.Sprintf("child-exit:%d", k.ID)
	default:
		return fmt.Sprintf("resource:%d", k.ID)
	}
}

type WaitQueue struct {
	Key     WaitKey
	waiters []*Task
}

func NewWaitQueue(kind WaitKind, id int) *WaitQueue {
	return &WaitQueue{Key: WaitKey{kind, id}}
}

func (q *WaitQueue) Len() int {
	return len(q.waiters)
}

func (q *WaitQueue) remove(t *Task) {
	for i, w := range q.waiters {
		if w == t {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return
		}
	}
}
