package frontier

// Task is a page waiting to be crawled
type Task struct {
	URL   string
	Depth int
}

// Queue is a FIFO of tasks. It is not safe for concurrent use.
type Queue struct {
	items []Task
	head  int
}

// NewQueue returns a queue holding the given tasks in order
func NewQueue(tasks ...Task) *Queue {
	q := &Queue{}
	for _, t := range tasks {
		q.Push(t)
	}
	return q
}

// Push appends t to the back of the queue
func (q *Queue) Push(t Task) {
	q.items = append(q.items, t)
}

// Pop removes and returns the task at the front
func (q *Queue) Pop() (Task, bool) {
	if q.head >= len(q.items) {
		return Task{}, false
	}
	t := q.items[q.head]
	q.items[q.head] = Task{}
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head > 1024 && q.head*2 > len(q.items) {
		q.items = append([]Task(nil), q.items[q.head:]...)
		q.head = 0
	}
	return t, true
}

// Len returns the number of queued tasks
func (q *Queue) Len() int {
	return len(q.items) - q.head
}
