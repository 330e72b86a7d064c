package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"alphaloop/internal/cycle"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context) (*cycle.State, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cycle.State), args.Error(1)
}

func TestSupervisor_RunOnce(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything).Return(&cycle.State{
		TraceID:   "trace-1",
		StartedAt: time.Now(),
		Duration:  120 * time.Millisecond,
	}, nil)

	sup := NewSupervisor(runner, Options{})
	state, err := sup.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "trace-1", state.TraceID)

	status := sup.Status()
	assert.False(t, status.Running)
	assert.Equal(t, "CLOSED", status.BreakerState)
	assert.NotNil(t, status.Last)
	assert.Equal(t, "trace-1", status.Last.TraceID)
	assert.Empty(t, status.Last.Error)
}

func TestSupervisor_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything).Return(nil, errors.New("account snapshot failed"))

	sup := NewSupervisor(runner, Options{BreakerThreshold: 2, BreakerTimeout: time.Hour})

	_, err := sup.RunOnce(context.Background())
	assert.Error(t, err)
	_, err = sup.RunOnce(context.Background())
	assert.Error(t, err)

	// 熔断打开后拒绝执行，runner 不再被调用
	_, err = sup.RunOnce(context.Background())
	assert.ErrorContains(t, err, "breaker open")
	runner.AssertNumberOfCalls(t, "Run", 2)

	status := sup.Status()
	assert.Equal(t, "OPEN", status.BreakerState)
	assert.Equal(t, "account snapshot failed", status.Last.Error)
}

func TestSupervisor_DoubleStartRejected(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything).Return(&cycle.State{TraceID: "t"}, nil)

	sup := NewSupervisor(runner, Options{Interval: time.Hour, Cooldown: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.NoError(t, sup.Start(ctx))
	assert.ErrorContains(t, sup.Start(ctx), "already running")
	sup.Stop()
}

func TestSupervisor_StopWithoutStartIsNoop(t *testing.T) {
	sup := NewSupervisor(new(MockRunner), Options{})
	sup.Stop()
	assert.False(t, sup.Status().Running)
}
