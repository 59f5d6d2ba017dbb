package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_StoresLatestResult(t *testing.T) {
	l := NewLoader[int]()

	v, err := l.Load(context.Background(), func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	got, ok := l.Value()
	assert.True(t, ok)
	assert.Equal(t, 7, got)

	boom := errors.New("boom")
	_, err = l.Load(context.Background(), func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, l.Err(), boom)
	_, ok = l.Value()
	assert.False(t, ok)
}

func TestLoader_NewLoadCancelsAndDiscardsPrevious(t *testing.T) {
	l := NewLoader[string]()
	started := make(chan struct{})
	firstDone := make(chan error, 1)

	go func() {
		_, err := l.Load(context.Background(), func(ctx context.Context) (string, error) {
			close(started)
			<-ctx.Done()
			return "stale", nil
		})
		firstDone <- err
	}()
	<-started

	v, err := l.Load(context.Background(), func(context.Context) (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)

	select {
	case err := <-firstDone:
		assert.ErrorIs(t, err, ErrSuperseded)
		assert.True(t, IsDiscarded(err))
	case <-time.After(time.Second):
		t.Fatal("first load was not cancelled")
	}

	got, ok := l.Value()
	assert.True(t, ok)
	assert.Equal(t, "fresh", got)
}

func TestLoader_CloseDiscardsInFlight(t *testing.T) {
	l := NewLoader[int]()
	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := l.Load(context.Background(), func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			return 1, ctx.Err()
		})
		done <- err
	}()
	<-started
	l.Close()

	assert.ErrorIs(t, <-done, ErrClosed)
	_, ok := l.Value()
	assert.False(t, ok)

	_, err := l.Load(context.Background(), func(context.Context) (int, error) { return 2, nil })
	assert.ErrorIs(t, err, ErrClosed)
}
