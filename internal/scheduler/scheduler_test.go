package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingExpirer struct {
	calls atomic.Int32
	err   error
}

func (c *countingExpirer) ExpireDue(context.Context) (int, error) {
	c.calls.Add(1)
	return 3, c.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStart_EmptyScheduleDisabled(t *testing.T) {
	exp := &countingExpirer{}
	s := New(exp, quietLogger())
	require.NoError(t, s.Start(""))
	assert.Empty(t, s.cron.Entries())
	<-s.Stop().Done()
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := New(&countingExpirer{}, quietLogger())
	assert.Error(t, s.Start("every tuesday"))
}

func TestStart_RegistersSweep(t *testing.T) {
	s := New(&countingExpirer{}, quietLogger())
	require.NoError(t, s.Start("@hourly"))
	defer s.Stop()
	assert.Len(t, s.cron.Entries(), 1)
}

func TestExpireSubscriptions(t *testing.T) {
	exp := &countingExpirer{}
	s := New(exp, quietLogger())
	s.ExpireSubscriptions()
	assert.Equal(t, int32(1), exp.calls.Load())

	exp.err = errors.New("db down")
	s.ExpireSubscriptions()
	assert.Equal(t, int32(2), exp.calls.Load())
}
