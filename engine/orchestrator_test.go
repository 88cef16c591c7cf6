package engine_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cppla/solquest/client"
	"github.com/cppla/solquest/engine"
	"github.com/cppla/solquest/models"
)

type fakeBackend struct {
	mu sync.Mutex

	completeResult *client.CompleteTaskResult
	completeErr    error
	completeCalls  int

	userData  *models.UserRecord
	userErr   error
	userCalls int

	current *models.UserRecord
}

func (f *fakeBackend) CompleteTask(ctx context.Context, address, sig, taskID string) (*client.CompleteTaskResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalls++
	return f.completeResult, f.completeErr
}

func (f *fakeBackend) GetUserData(ctx context.Context, address string) (*models.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls++
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.userData.Clone(), nil
}

func (f *fakeBackend) CurrentUserData() *models.UserRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current.Clone()
}

func (f *fakeBackend) calls() (complete, user int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completeCalls, f.userCalls
}

type fakeProvider struct {
	signErr error
}

func (f *fakeProvider) Connect(ctx context.Context, onlyIfTrusted bool) (string, error) {
	return "wallet1", nil
}

func (f *fakeProvider) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	return []byte("signed:" + string(message)), nil
}

type testRig struct {
	orch    *engine.Orchestrator
	session *engine.Session
	bus     *engine.Bus
	clk     *clock.Mock
	backend *fakeBackend

	mu        sync.Mutex
	published []engine.UserDataEvent
}

func (r *testRig) broadcasts() []engine.UserDataEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]engine.UserDataEvent, len(r.published))
	copy(out, r.published)
	return out
}

func newRig(t *testing.T, backend *fakeBackend, provider *fakeProvider) *testRig {
	t.Helper()

	rig := &testRig{
		session: engine.NewSession(""),
		bus:     engine.NewBus(),
		clk:     clock.NewMock(),
		backend: backend,
	}
	rig.bus.Subscribe(func(evt engine.UserDataEvent) {
		rig.mu.Lock()
		rig.published = append(rig.published, evt)
		rig.mu.Unlock()
	})

	log := zap.NewNop().Sugar()
	rig.orch = engine.NewOrchestrator(rig.session, provider, backend, rig.bus, engine.NewNoticeLog(log, 10), log, engine.Options{
		ConfirmDelay: 2 * time.Minute,
		PlayPriceSOL: 0.001,
		Clock:        rig.clk,
	})
	return rig
}

var followTask = models.Task{ID: "t1", Name: "Follow", Points: 10, URL: "https://x.com/follow"}

func TestCompletePendingConfirmsAfterExactDelay(t *testing.T) {
	backend := &fakeBackend{
		completeResult: &client.CompleteTaskResult{Pending: true},
		userData:       &models.UserRecord{WalletAddress: "wallet1", Points: 10},
	}
	rig := newRig(t, backend, &fakeProvider{})
	rig.session.Connect("wallet1")

	attempt, err := rig.orch.Complete(context.Background(), followTask)
	require.NoError(t, err)
	require.NotNil(t, attempt)
	assert.Equal(t, engine.StatePendingConfirmation, attempt.State)
	assert.Empty(t, rig.broadcasts(), "nothing broadcast before the delay expires")

	rig.clk.Add(2*time.Minute - time.Second)
	_, userCalls := backend.calls()
	assert.Zero(t, userCalls, "no refresh before the full delay")
	current, ok := rig.orch.Attempt("t1")
	require.True(t, ok)
	assert.Equal(t, engine.StatePendingConfirmation, current.State)

	rig.clk.Add(time.Second)
	_, userCalls = backend.calls()
	assert.Equal(t, 1, userCalls, "exactly one refresh at expiry")
	require.Len(t, rig.broadcasts(), 1, "exactly one broadcast at expiry")
	assert.Equal(t, 10, rig.broadcasts()[0].Record.Points)

	confirmed, ok := rig.orch.Attempt("t1")
	require.True(t, ok)
	assert.Equal(t, engine.StateConfirmed, confirmed.State)
	assert.True(t, confirmed.Verified)

	// The timer fired once; more time does nothing.
	rig.clk.Add(10 * time.Minute)
	_, userCalls = backend.calls()
	assert.Equal(t, 1, userCalls)
	assert.Len(t, rig.broadcasts(), 1)
}

func TestCompleteImmediateRecordSkipsTimer(t *testing.T) {
	backend := &fakeBackend{
		completeResult: &client.CompleteTaskResult{Record: &models.UserRecord{WalletAddress: "wallet1", Points: 30}},
	}
	rig := newRig(t, backend, &fakeProvider{})
	rig.session.Connect("wallet1")

	attempt, err := rig.orch.Complete(context.Background(), followTask)
	require.NoError(t, err)
	assert.Equal(t, engine.StateConfirmed, attempt.State)
	assert.True(t, attempt.Verified)
	require.Len(t, rig.broadcasts(), 1)
	assert.Equal(t, 30, rig.broadcasts()[0].Record.Points)

	rig.clk.Add(10 * time.Minute)
	_, userCalls := backend.calls()
	assert.Zero(t, userCalls, "immediate confirmation schedules no refresh")
	assert.Len(t, rig.broadcasts(), 1)
}

func TestCompleteAlreadyCompletedIsSoftSuccess(t *testing.T) {
	backend := &fakeBackend{
		completeErr: fmt.Errorf("%w: 今日已完成", client.ErrAlreadyCompleted),
	}
	rig := newRig(t, backend, &fakeProvider{})
	rig.session.Connect("wallet1")

	attempt, err := rig.orch.Complete(context.Background(), followTask)
	require.NoError(t, err, "already completed is not an error")
	assert.Equal(t, engine.StateConfirmed, attempt.State)

	rig.clk.Add(10 * time.Minute)
	_, userCalls := backend.calls()
	assert.Zero(t, userCalls, "no refresh for an already completed task")
	assert.Empty(t, rig.broadcasts())
}

func TestCompleteBackendFailureRevertsToIdle(t *testing.T) {
	backend := &fakeBackend{completeErr: errors.New("backend down")}
	rig := newRig(t, backend, &fakeProvider{})
	rig.session.Connect("wallet1")

	attempt, err := rig.orch.Complete(context.Background(), followTask)
	require.Error(t, err)
	require.NotNil(t, attempt)
	assert.Equal(t, engine.StateIdle, attempt.State, "a failed attempt re-enables the task")
	assert.Contains(t, attempt.LastError, "backend down")
	assert.Empty(t, rig.broadcasts())

	// The task can be attempted again right away.
	backend.mu.Lock()
	backend.completeErr = nil
	backend.completeResult = &client.CompleteTaskResult{Pending: true}
	backend.mu.Unlock()
	retry, err := rig.orch.Complete(context.Background(), followTask)
	require.NoError(t, err)
	assert.Equal(t, engine.StatePendingConfirmation, retry.State)
}

func TestCompleteSigningFailureRevertsToIdle(t *testing.T) {
	backend := &fakeBackend{}
	rig := newRig(t, backend, &fakeProvider{signErr: errors.New("user dismissed prompt")})
	rig.session.Connect("wallet1")

	attempt, err := rig.orch.Complete(context.Background(), followTask)
	require.Error(t, err)
	require.NotNil(t, attempt)
	assert.Equal(t, engine.StateIdle, attempt.State)

	completeCalls, _ := backend.calls()
	assert.Zero(t, completeCalls, "nothing is submitted without a signature")
}

func TestCompleteConfirmsOptimisticallyWhenRefreshFails(t *testing.T) {
	backend := &fakeBackend{
		completeResult: &client.CompleteTaskResult{Pending: true},
		userErr:        errors.New("refresh failed"),
	}
	rig := newRig(t, backend, &fakeProvider{})
	rig.session.Connect("wallet1")

	_, err := rig.orch.Complete(context.Background(), followTask)
	require.NoError(t, err)

	rig.clk.Add(2 * time.Minute)

	attempt, ok := rig.orch.Attempt("t1")
	require.True(t, ok)
	assert.Equal(t, engine.StateConfirmed, attempt.State, "confirmation commits even when the refresh fails")
	assert.False(t, attempt.Verified, "the unverified flag records the failed refresh")
	assert.Empty(t, rig.broadcasts(), "no broadcast without fresh data")
}

func TestCompleteGuards(t *testing.T) {
	backend := &fakeBackend{completeResult: &client.CompleteTaskResult{Pending: true}}
	rig := newRig(t, backend, &fakeProvider{})

	_, err := rig.orch.Complete(context.Background(), followTask)
	assert.ErrorIs(t, err, engine.ErrNotConnected)

	rig.session.Connect("wallet1")
	_, err = rig.orch.Complete(context.Background(), models.Task{ID: "t9", Name: "Soon", URL: "#"})
	assert.ErrorIs(t, err, engine.ErrTaskInert)

	_, err = rig.orch.Complete(context.Background(), followTask)
	require.NoError(t, err)
	_, err = rig.orch.Complete(context.Background(), followTask)
	assert.ErrorIs(t, err, engine.ErrAttemptInFlight, "a pending attempt blocks resubmission")
}

func TestPlaySpendsAllowance(t *testing.T) {
	backend := &fakeBackend{
		current:  &models.UserRecord{WalletAddress: "wallet1", PlayAllowanceSOL: 0.002},
		userData: &models.UserRecord{WalletAddress: "wallet1", Points: 5, PlayAllowanceSOL: 0.002},
	}
	rig := newRig(t, backend, &fakeProvider{})
	rig.session.Connect("wallet1")

	first, err := rig.orch.Play(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.001, first.Spent, 1e-9)

	second, err := rig.orch.Play(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.002, second.Spent, 1e-9)

	_, err = rig.orch.Play(context.Background())
	assert.ErrorIs(t, err, engine.ErrAllowanceExhausted)

	assert.Len(t, rig.broadcasts(), 2, "each successful play refreshes and broadcasts")
}

func TestPlayPresaleGate(t *testing.T) {
	backend := &fakeBackend{
		current:  &models.UserRecord{WalletAddress: "wallet1", PlayAllowanceSOL: 1},
		userData: &models.UserRecord{WalletAddress: "wallet1", PlayAllowanceSOL: 1},
	}
	rig := newRig(t, backend, &fakeProvider{})
	rig.session.Connect("wallet1")
	rig.session.SetFlags(engine.Flags{PresaleOnly: true})

	_, err := rig.orch.Play(context.Background())
	assert.ErrorIs(t, err, engine.ErrPresaleOnly)
	assert.Zero(t, rig.session.Consumed(), "a gated play spends nothing")

	backend.mu.Lock()
	backend.current.IsWhitelisted = true
	backend.mu.Unlock()
	_, err = rig.orch.Play(context.Background())
	require.NoError(t, err)
}

func TestPlayRequiresLoadedUser(t *testing.T) {
	rig := newRig(t, &fakeBackend{}, &fakeProvider{})

	_, err := rig.orch.Play(context.Background())
	assert.ErrorIs(t, err, engine.ErrNotConnected)

	rig.session.Connect("wallet1")
	_, err = rig.orch.Play(context.Background())
	assert.ErrorIs(t, err, engine.ErrLoginRequired)
}
