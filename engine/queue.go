package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sehyunk/jangter/data/repos"
	"github.com/sehyunk/jangter/models"
	"github.com/sehyunk/jangter/notifiers"
	"github.com/sehyunk/jangter/observability"
)

type jobKind string

const (
	jobNewItem     jobKind = "new_item"
	jobPriceChange jobKind = "price_change"
	jobMessage     jobKind = "message"
)

type job struct {
	ID        uuid.UUID
	Kind      jobKind
	Item      models.Item
	Note      string
	Text      string
	OldPrice  string
	NewPrice  string
	ListingID int64
}

const (
	sendMaxAttempts = 3
	sendBaseDelay   = time.Second
	sendTimeout     = 15 * time.Second
)

// Queue hands alerts to the notifiers off the search path. Enqueue never
// blocks; a single dispatcher drains jobs in order and retries each
// channel independently.
type Queue struct {
	repo     *repos.ListingRepo
	channels []notifiers.Notifier
	schedule models.Schedule

	mu      sync.Mutex
	jobs    []job
	busy    bool
	started bool

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// overridable in tests
	now       func() time.Time
	baseDelay time.Duration
}

func NewQueue(repo *repos.ListingRepo, channels []notifiers.Notifier, schedule models.Schedule) *Queue {
	return &Queue{
		repo:      repo,
		channels:  channels,
		schedule:  schedule,
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		now:       time.Now,
		baseDelay: sendBaseDelay,
	}
}

func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	go q.run()
}

// Enqueue appends a job and returns immediately.
func (q *Queue) Enqueue(j job) {
	j.ID = uuid.New()

	q.mu.Lock()
	q.jobs = append(q.jobs, j)
	depth := len(q.jobs)
	q.mu.Unlock()

	observability.QueueDepth.Set(float64(depth))

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *Queue) idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs) == 0 && !q.busy
}

// Drain waits for pending jobs to be delivered, then stops the
// dispatcher. Jobs still queued when the timeout hits are discarded.
// Draining a never-started queue, or draining twice, is a no-op.
func (q *Queue) Drain(timeout time.Duration) {
	q.mu.Lock()
	started := q.started
	q.mu.Unlock()
	if !started {
		return
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) && !q.idle() {
		time.Sleep(10 * time.Millisecond)
	}

	q.stopOnce.Do(func() { close(q.stop) })
	<-q.done

	if remaining := q.Len(); remaining > 0 {
		slog.Warn("discarding undelivered notifications", "count", remaining)
	}
}

func (q *Queue) run() {
	defer close(q.done)

	for {
		j, ok := q.next()
		if !ok {
			select {
			case <-q.stop:
				return
			case <-q.wake:
			}
			continue
		}

		select {
		case <-q.stop:
			// push back so Drain can count it
			q.mu.Lock()
			q.jobs = append([]job{j}, q.jobs...)
			q.busy = false
			q.mu.Unlock()
			return
		default:
		}

		q.dispatch(j)
		q.setIdle()
	}
}

func (q *Queue) next() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return job{}, false
	}
	j := q.jobs[0]
	q.jobs = q.jobs[1:]
	q.busy = true
	observability.QueueDepth.Set(float64(len(q.jobs)))
	return j, true
}

func (q *Queue) setIdle() {
	q.mu.Lock()
	q.busy = false
	q.mu.Unlock()
}

func (q *Queue) dispatch(j job) {
	if !q.schedule.ActiveAt(q.now()) {
		slog.Info("notification outside schedule, dropped",
			"job", j.ID, "kind", j.Kind, "title", j.Item.Title)
		return
	}

	for _, n := range q.channels {
		if q.deliver(n, j) {
			observability.NotificationsTotal.WithLabelValues(string(n.Channel()), "sent").Inc()
			if j.ListingID > 0 {
				if err := q.repo.LogNotification(j.ListingID, n.Channel(), q.preview(j)); err != nil {
					slog.Error("log notification", "error", err)
				}
			}
		} else {
			observability.NotificationsTotal.WithLabelValues(string(n.Channel()), "failed").Inc()
		}
	}
}

// deliver tries one channel up to sendMaxAttempts times with growing
// pauses. A false return means the job is given up for this channel.
func (q *Queue) deliver(n notifiers.Notifier, j job) bool {
	var lastErr error

	for attempt := 1; attempt <= sendMaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		lastErr = q.send(ctx, n, j)
		cancel()

		if lastErr == nil {
			return true
		}

		if attempt < sendMaxAttempts {
			delay := q.baseDelay * time.Duration(attempt)
			slog.Warn("notification send failed, retrying",
				"channel", n.Channel(), "job", j.ID, "attempt", attempt,
				"delay", delay, "error", lastErr)
			select {
			case <-q.stop:
				return false
			case <-time.After(delay):
			}
		}
	}

	slog.Error("notification send failed",
		"channel", n.Channel(), "job", j.ID, "attempts", sendMaxAttempts, "error", lastErr)
	return false
}

func (q *Queue) send(ctx context.Context, n notifiers.Notifier, j job) error {
	switch j.Kind {
	case jobPriceChange:
		return n.SendPriceChange(ctx, j.Item, j.OldPrice, j.NewPrice, j.Note)
	case jobMessage:
		return n.SendMessage(ctx, j.Text)
	default:
		return n.SendItem(ctx, j.Item, j.Note)
	}
}

func (q *Queue) preview(j job) string {
	switch j.Kind {
	case jobPriceChange:
		return j.Item.Title + " " + j.OldPrice + " → " + j.NewPrice
	case jobMessage:
		return j.Text
	default:
		return j.Item.Title + " " + j.Item.Price
	}
}
