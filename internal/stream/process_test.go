package stream

import (
	"context"
	"testing"
	"time"

	"github.com/casualjim/scriptbridge/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessData_WhenSenderIsNotACollection_Fails(t *testing.T) {
	sender := session.NewCollection[any]()

	err := ProcessData(sender, 0, func(s string) {})
	var argErr *ArgumentTypeError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "sender", argErr.Param)
	assert.Contains(t, err.Error(), "must be of type")

	err = ProcessData(42, 0, func(s string) {})
	require.ErrorAs(t, err, &argErr)
}

func TestProcessData_WhenSenderIsACollection_RemovesItem(t *testing.T) {
	sender := session.NewCollection[string]()
	sender.Add("string0")
	sender.Add("string1")

	require.NoError(t, ProcessData(sender, 0, func(string) {}))

	assert.Equal(t, []string{"string1"}, sender.Items())
}

func TestProcessData_WhenSenderIsACollection_InvokesAction(t *testing.T) {
	sender := session.NewCollection[string]()
	sender.Add("hello")

	var got []string
	require.NoError(t, ProcessData(sender, 0, func(s string) { got = append(got, s) }))
	assert.Equal(t, []string{"hello"}, got)
}

func TestProcessData_WhenIndexIsOutOfRange_Fails(t *testing.T) {
	sender := session.NewCollection[string]()
	called := false
	err := ProcessData(sender, 3, func(string) { called = true })
	assert.Error(t, err)
	assert.False(t, called)
}

func TestQueue(t *testing.T) {
	q := NewQueue[int](2)
	ctx := context.Background()
	require.NoError(t, q.Push(ctx, 1))
	require.NoError(t, q.Push(ctx, 2))
	assert.Equal(t, 2, q.Len())

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Push(short, 3), context.DeadlineExceeded)

	q.Complete()
	q.Complete()
	assert.ErrorIs(t, q.Push(ctx, 4), ErrQueueCompleted)

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	_, ok = q.Pop()
	assert.False(t, ok)
}
