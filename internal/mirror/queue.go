package mirror

import (
	"context"
	"fmt"
)

// Task is one unit of best-effort work. Run returns how many documents it
// copied.
type Task struct {
	Name         string
	CollectionID string
	Run          func(ctx context.Context) (int, error)
}

// Warning records a failed task.
type Warning struct {
	Task         string
	CollectionID string
	Err          error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s for collection %s: %v", w.Task, w.CollectionID, w.Err)
}

// Queue runs tasks one after another. A failing task never stops the
// ones queued after it; its error becomes a Warning instead. A canceled
// context turns every remaining task into a warning.
type Queue struct {
	tasks []Task
}

func (q *Queue) Add(t Task) {
	q.tasks = append(q.tasks, t)
}

func (q *Queue) Len() int { return len(q.tasks) }

// Drain runs every queued task and empties the queue. step is called
// after each task with the number of tasks finished so far.
func (q *Queue) Drain(ctx context.Context, step func(done, total int)) (copied int, warnings []Warning) {
	tasks := q.tasks
	q.tasks = nil

	for i, t := range tasks {
		n, err := q.run(ctx, t)
		copied += n
		if err != nil {
			warnings = append(warnings, Warning{Task: t.Name, CollectionID: t.CollectionID, Err: err})
		}
		if step != nil {
			step(i+1, len(tasks))
		}
	}
	return copied, warnings
}

func (q *Queue) run(ctx context.Context, t Task) (n int, err error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("task panicked: %v", r)
		}
	}()
	return t.Run(ctx)
}
