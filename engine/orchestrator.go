package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/cppla/solquest/client"
	"github.com/cppla/solquest/models"
	"github.com/cppla/solquest/wallet"
)

var (
	// ErrTaskInert marks tasks without a real target URL; they are rendered
	// but can never be submitted.
	ErrTaskInert = errors.New("task has no target url")
	// ErrAttemptInFlight rejects a second submission while one is running.
	ErrAttemptInFlight = errors.New("task attempt already in flight")
)

// AttemptState is the per-attempt state machine position.
type AttemptState string

const (
	StateIdle                AttemptState = "idle"
	StateSubmitting          AttemptState = "submitting"
	StatePendingConfirmation AttemptState = "pending_confirmation"
	StateConfirmed           AttemptState = "confirmed"
)

// Attempt tracks one task-completion attempt. Confirmed is terminal; a failed
// attempt reverts to idle so the task control is re-enabled. Whether a task
// can be resubmitted on a later day is derived from the user record at render
// time, never from attempt memory.
type Attempt struct {
	TaskID    string       `json:"task_id"`
	State     AttemptState `json:"state"`
	Verified  bool         `json:"verified"`
	LastError string       `json:"last_error,omitempty"`
	StartedAt time.Time    `json:"started_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Backend is the slice of the quest backend client the orchestrator uses.
type Backend interface {
	CompleteTask(ctx context.Context, address, signatureBase64, taskID string) (*client.CompleteTaskResult, error)
	GetUserData(ctx context.Context, address string) (*models.UserRecord, error)
	CurrentUserData() *models.UserRecord
}

// Options configure an Orchestrator.
type Options struct {
	// ConfirmDelay is the fixed wait before a pending completion is
	// confirmed. Exactly one delayed confirmation fires per attempt.
	ConfirmDelay time.Duration
	// PlayPriceSOL is the allowance cost of one game.
	PlayPriceSOL float64
	// OpenURL is the fire-and-forget hook that opens a task's target in a
	// browsing context. It must not block; the flow never awaits it.
	OpenURL func(url string)
	// Clock drives the confirmation timer; tests inject a mock.
	Clock clock.Clock
}

// Orchestrator runs the task-completion flow: submit, interpret the backend's
// pending/immediate/failed response, and reconcile state either synchronously
// or after the fixed confirmation delay.
type Orchestrator struct {
	session  *Session
	provider wallet.Provider
	backend  Backend
	bus      *Bus
	notifier Notifier
	log      *zap.SugaredLogger

	clk      clock.Clock
	delay    time.Duration
	playCost float64
	openURL  func(string)

	mu       sync.Mutex
	attempts map[string]*Attempt
}

// NewOrchestrator wires the flow together.
func NewOrchestrator(session *Session, provider wallet.Provider, backend Backend, bus *Bus, notifier Notifier, log *zap.SugaredLogger, opts Options) *Orchestrator {
	if opts.ConfirmDelay <= 0 {
		opts.ConfirmDelay = 2 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.PlayPriceSOL <= 0 {
		opts.PlayPriceSOL = 0.001
	}
	return &Orchestrator{
		session:  session,
		provider: provider,
		backend:  backend,
		bus:      bus,
		notifier: notifier,
		log:      log,
		clk:      opts.Clock,
		delay:    opts.ConfirmDelay,
		playCost: opts.PlayPriceSOL,
		openURL:  opts.OpenURL,
		attempts: make(map[string]*Attempt),
	}
}

// Complete runs one task-completion attempt end to end. The returned Attempt
// reflects the state reached synchronously; a pending attempt confirms later
// on the orchestrator's clock.
func (o *Orchestrator) Complete(ctx context.Context, task models.Task) (*Attempt, error) {
	if !task.Actionable() {
		return nil, ErrTaskInert
	}
	address, ok := o.session.Address()
	if !ok {
		return nil, ErrNotConnected
	}

	if _, err := o.beginAttempt(task.ID); err != nil {
		return nil, err
	}

	// Open the target right away; the flow does not depend on it.
	if o.openURL != nil {
		o.openURL(task.URL)
	}

	msg := wallet.CompleteTaskMessage(task.ID, o.clk.Now())
	sig, err := o.provider.SignMessage(ctx, msg)
	if err != nil {
		o.failAttempt(task.ID, err.Error())
		o.notifier.Notify(NoticeError, "Signature failed, please try again")
		return o.snapshot(task.ID), err
	}

	result, err := o.backend.CompleteTask(ctx, address, wallet.EncodeSignature(sig), task.ID)
	if err != nil {
		if errors.Is(err, client.ErrAlreadyCompleted) {
			// Soft success: the backend already has today's completion.
			o.confirmAttempt(task.ID, true)
			o.notifier.Notify(NoticeInfo, "Task already completed today")
			return o.snapshot(task.ID), nil
		}
		o.failAttempt(task.ID, err.Error())
		o.notifier.Notify(NoticeError, "Task submission failed, please try again")
		return o.snapshot(task.ID), err
	}

	switch {
	case result.Pending:
		o.markPending(task.ID)
		// Exactly one delayed confirmation per attempt. The timer always
		// fires once scheduled; there is no cancellation path.
		o.clk.AfterFunc(o.delay, func() {
			o.confirmPending(task.ID, address)
		})
		o.log.Infow("task completion pending", "task", task.ID, "delay", o.delay)

	case result.Record != nil:
		o.confirmAttempt(task.ID, true)
		o.bus.Publish(result.Record, o.clk.Now())
		o.notifier.Notify(NoticeSuccess, "Task completed!")

	default:
		err := errors.New("backend returned no result")
		o.failAttempt(task.ID, err.Error())
		o.notifier.Notify(NoticeError, "Task submission failed, please try again")
		return o.snapshot(task.ID), err
	}

	return o.snapshot(task.ID), nil
}

// confirmPending runs when the confirmation delay expires: refresh the user
// record, broadcast the replacement, and confirm. The confirmation is an
// optimistic commit: a failed refresh still confirms, with Verified left
// false so the view can show an unverified completion.
func (o *Orchestrator) confirmPending(taskID, address string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	rec, err := o.backend.GetUserData(ctx, address)
	if err != nil {
		o.log.Warnw("refresh after pending completion failed", "task", taskID, "err", err)
		o.confirmAttempt(taskID, false)
	} else {
		o.confirmAttempt(taskID, true)
		o.bus.Publish(rec, o.clk.Now())
	}

	o.notifier.Notify(NoticeSuccess, "Task completed! Points credited.")
}

// Attempts returns a snapshot of all attempts, ordered by task identifier.
func (o *Orchestrator) Attempts() []Attempt {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Attempt, 0, len(o.attempts))
	for _, a := range o.attempts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}

// Attempt returns the attempt for one task, if any.
func (o *Orchestrator) Attempt(taskID string) (Attempt, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, ok := o.attempts[taskID]
	if !ok {
		return Attempt{}, false
	}
	return *a, true
}

func (o *Orchestrator) beginAttempt(taskID string) (*Attempt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if prev, ok := o.attempts[taskID]; ok {
		if prev.State == StateSubmitting || prev.State == StatePendingConfirmation {
			return nil, ErrAttemptInFlight
		}
	}

	now := o.clk.Now()
	a := &Attempt{TaskID: taskID, State: StateSubmitting, StartedAt: now, UpdatedAt: now}
	o.attempts[taskID] = a
	return a, nil
}

func (o *Orchestrator) markPending(taskID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if a, ok := o.attempts[taskID]; ok {
		a.State = StatePendingConfirmation
		a.UpdatedAt = o.clk.Now()
	}
}

func (o *Orchestrator) confirmAttempt(taskID string, verified bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if a, ok := o.attempts[taskID]; ok {
		a.State = StateConfirmed
		a.Verified = verified
		a.UpdatedAt = o.clk.Now()
	}
}

// failAttempt reverts to idle so the task control is re-enabled; the error
// text is kept for the attempts view.
func (o *Orchestrator) failAttempt(taskID, msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if a, ok := o.attempts[taskID]; ok {
		a.State = StateIdle
		a.LastError = msg
		a.UpdatedAt = o.clk.Now()
	}
}

func (o *Orchestrator) snapshot(taskID string) *Attempt {
	o.mu.Lock()
	defer o.mu.Unlock()
	if a, ok := o.attempts[taskID]; ok {
		cp := *a
		return &cp
	}
	return nil
}
