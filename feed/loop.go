package feed

import "context"

// Loop is the single-goroutine dispatcher the thread list runs on. Fetch
// completions are posted here, so all list mutation and listener dispatch
// happens on one goroutine, in order.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

func NewLoop() *Loop {
	return &Loop{
		tasks: make(chan func(), 128),
		done:  make(chan struct{}),
	}
}

// Run processes posted tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post schedules fn on the loop. Once the loop has stopped it reports
// false and drops fn, so completions that outlive a shutdown never touch
// dead state.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case <-l.done:
		return false
	case l.tasks <- fn:
		return true
	}
}
