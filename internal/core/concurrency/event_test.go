package concurrency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_SetReset(t *testing.T) {
	var e Event
	assert.False(t, e.IsSet())

	assert.True(t, e.Set())
	assert.False(t, e.Set(), "重复置位不改变状态")
	assert.True(t, e.IsSet())

	select {
	case <-e.Done():
	default:
		t.Fatal("置位后 Done 应已关闭")
	}

	assert.True(t, e.Reset())
	assert.False(t, e.Reset())
	assert.False(t, e.IsSet())

	select {
	case <-e.Done():
		t.Fatal("复位后 Done 不应关闭")
	default:
	}
}

func TestEvent_SetBeforeDone(t *testing.T) {
	e := NewEvent()
	e.Set()

	select {
	case <-e.Done():
	case <-time.After(time.Second):
		t.Fatal("未观察到置位")
	}
}

func TestEvent_Wait(t *testing.T) {
	e := NewEvent()

	go func() {
		time.Sleep(20 * time.Millisecond)
		e.Set()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.Wait(ctx))
}

func TestEvent_WaitCanceled(t *testing.T) {
	e := NewEvent()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, e.Wait(ctx), context.DeadlineExceeded)
}
