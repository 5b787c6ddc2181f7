package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServices struct {
	reminders, expired, digests int
	purged                      int64
	err                         error
}

func (f *fakeServices) SendReminders(ctx context.Context) (int, error) {
	f.reminders++
	return 2, f.err
}

func (f *fakeServices) ExpireSubscriptions(ctx context.Context) (int, error) {
	f.expired++
	return 1, f.err
}

func (f *fakeServices) SendDigests(ctx context.Context) (int, error) {
	f.digests++
	return 0, f.err
}

func (f *fakeServices) PurgeSessions(ctx context.Context) (int64, error) {
	f.purged++
	return 7, f.err
}

func TestRegister_AddsStandardSchedule(t *testing.T) {
	s := NewScheduler()
	f := &fakeServices{}

	require.NoError(t, Register(s, Services{Reminders: f, Subscriptions: f, Digests: f, Sessions: f}))
	assert.Equal(t, 4, s.Len())
}

func TestAdd_RejectsBadSpec(t *testing.T) {
	s := NewScheduler()
	err := s.Add("broken", "every now and then", func(ctx context.Context) (int64, error) { return 0, nil })
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestRunner_PassesLiveContext(t *testing.T) {
	s := NewScheduler()
	var deadline bool
	run := s.runner("probe", func(ctx context.Context) (int64, error) {
		_, deadline = ctx.Deadline()
		return 0, ctx.Err()
	})
	run()
	assert.True(t, deadline)
}

func TestRunner_SwallowsErrors(t *testing.T) {
	s := NewScheduler()
	f := &fakeServices{err: errors.New("db down")}

	assert.NotPanics(t, s.runner("reminders", counted(f.SendReminders)))
	assert.Equal(t, 1, f.reminders)
}

func TestStop_CancelsJobContext(t *testing.T) {
	s := NewScheduler()
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	var jobErr error
	s.runner("late", func(ctx context.Context) (int64, error) {
		jobErr = ctx.Err()
		return 0, nil
	})()
	assert.ErrorIs(t, jobErr, context.Canceled)
}
