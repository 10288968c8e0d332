package listener

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultipleSubscribersAllReceiveTrackChange(t *testing.T) {
	b := New()
	var gotA, gotB TrackChange
	b.OnTrackChange(func(e TrackChange) { gotA = e })
	b.OnTrackChange(func(e TrackChange) { gotB = e })

	b.EmitTrackChange(TrackChange{Index: 2, Total: 5})

	assert.Equal(t, TrackChange{Index: 2, Total: 5}, gotA)
	assert.Equal(t, TrackChange{Index: 2, Total: 5}, gotB)
}

func TestEmitWithNoSubscribersIsANoOp(t *testing.T) {
	b := New()
	assert.NotPanics(t, func() {
		b.EmitStatusChange(StatusChange{Reason: "disc_end"})
	})
}

func TestStatusChangeDispatchOrderMatchesSubscriptionOrder(t *testing.T) {
	b := New()
	var order []string
	b.OnStatusChange(func(e StatusChange) { order = append(order, "first:"+e.Reason) })
	b.OnStatusChange(func(e StatusChange) { order = append(order, "second:"+e.Reason) })

	b.EmitStatusChange(StatusChange{Reason: "error"})

	assert.Equal(t, []string{"first:error", "second:error"}, order)
}
