package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceAppender struct {
	ms  []Movement
	err error
}

func (a *sliceAppender) AppendMovement(_ context.Context, m Movement) error {
	if a.err != nil {
		return a.err
	}
	a.ms = append(a.ms, m)
	return nil
}

func TestTypeFor(t *testing.T) {
	cases := []struct {
		reason Reason
		delta  int
		want   Type
		err    error
	}{
		{ReasonSale, -2, TypeOut, nil},
		{ReasonSale, 2, "", ErrSignMismatch},
		{ReasonWaste, -1, TypeOut, nil},
		{ReasonRestock, 5, TypeIn, nil},
		{ReasonRestock, -5, "", ErrSignMismatch},
		{ReasonInitial, 10, TypeIn, nil},
		{ReasonCorrection, -3, TypeAdjust, nil},
		{ReasonCorrection, 3, TypeAdjust, nil},
		{ReasonSale, 0, "", ErrZeroDelta},
		{"THEFT", -1, "", ErrUnknownReason},
	}
	for _, tc := range cases {
		got, err := TypeFor(tc.reason, tc.delta)
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, "%s %d", tc.reason, tc.delta)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestAppend(t *testing.T) {
	a := &sliceAppender{}
	actor, order := "u-1", "o-1"
	at := time.Date(2024, 1, 15, 21, 0, 0, 0, time.FixedZone("WIB", 7*3600))

	m, err := Append(context.Background(), a, Entry{ProductID: "P1", Delta: -2, Reason: ReasonSale, ActorID: &actor, OrderID: &order}, at)
	require.NoError(t, err)
	require.Len(t, a.ms, 1)
	assert.Equal(t, m, a.ms[0])
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, TypeOut, m.Type)
	assert.Equal(t, time.UTC, m.CreatedAt.Location())
	assert.Equal(t, "o-1", *m.OrderID)
}

func TestAppendRejects(t *testing.T) {
	a := &sliceAppender{}
	_, err := Append(context.Background(), a, Entry{Delta: 1, Reason: ReasonRestock}, time.Now())
	assert.Error(t, err)
	_, err = Append(context.Background(), a, Entry{ProductID: "P1", Reason: ReasonRestock}, time.Now())
	assert.ErrorIs(t, err, ErrZeroDelta)
	assert.Empty(t, a.ms)

	boom := errors.New("boom")
	_, err = Append(context.Background(), &sliceAppender{err: boom}, Entry{ProductID: "P1", Delta: 1, Reason: ReasonRestock}, time.Now())
	assert.ErrorIs(t, err, boom)
}

func TestReconcile(t *testing.T) {
	ms := []Movement{{Delta: 10}, {Delta: -2}, {Delta: -3}, {Delta: 4}}
	assert.Equal(t, 9, Sum(ms))
	assert.NoError(t, Reconcile(0, 9, ms))
	assert.NoError(t, Reconcile(1, 10, ms))
	assert.ErrorIs(t, Reconcile(0, 8, ms), ErrUnreconciled)
	assert.NoError(t, Reconcile(5, 5, nil))
}
