package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// step is one reported outcome and the breaker's expected answer to it.
type step struct {
	fail        bool
	useFallback bool
	opened      bool
	closed      bool
}

var (
	failOK     = step{fail: true}
	failOpen   = step{fail: true, useFallback: true, opened: true}
	failStay   = step{fail: true, useFallback: true}
	succOK     = step{}
	succWait   = step{useFallback: true}
	succClosed = step{closed: true}
)

func TestBreakerSequences(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		steps []step
		open  bool
	}{
		{
			name:  "opens on the third consecutive failure",
			opts:  []Option{WithFailureThreshold(3)},
			steps: []step{failOK, failOK, failOpen},
			open:  true,
		},
		{
			name:  "success resets the failure run",
			opts:  []Option{WithFailureThreshold(3)},
			steps: []step{failOK, failOK, succOK, failOK, failOK},
		},
		{
			name:  "open circuit keeps answering fallback",
			opts:  []Option{WithFailureThreshold(1)},
			steps: []step{failOpen, failStay, failStay},
			open:  true,
		},
		{
			name:  "closes after the success threshold",
			opts:  []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{failOpen, succWait, succClosed},
		},
		{
			name:  "failure while open restarts the success run",
			opts:  []Option{WithFailureThreshold(1), WithSuccessThreshold(3)},
			steps: []step{failOpen, succWait, succWait, failStay, succWait, succWait, succClosed},
		},
		{
			name:  "defaults open after five and close after three",
			steps: []step{failOK, failOK, failOK, failOK, failOpen, succWait, succWait, succClosed},
		},
		{
			name:  "non-positive thresholds keep defaults",
			opts:  []Option{WithFailureThreshold(0), WithSuccessThreshold(-1)},
			steps: []step{failOK},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("adaptive_hints", tt.opts...)
			for i, want := range tt.steps {
				var (
					answer bool
					change StateChange
				)
				if want.fail {
					answer, change = b.RecordFailure()
					require.Equalf(t, want.useFallback, answer, "step %d fallback", i)
				} else {
					answer, change = b.RecordSuccess()
					require.Equalf(t, !want.useFallback, answer, "step %d primary", i)
				}
				require.Equalf(t, want.opened, change.Opened, "step %d opened", i)
				require.Equalf(t, want.closed, change.Closed, "step %d closed", i)
			}
			assert.Equal(t, tt.open, b.IsOpen())
		})
	}
}

func TestBreakerReset(t *testing.T) {
	b := New("adaptive_hints", WithFailureThreshold(1))
	assert.Equal(t, "adaptive_hints", b.Name())
	assert.Equal(t, "closed", b.State().String())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, "open", b.State().String())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.False(t, change.Closed)
}
