package clock

import (
	"testing"
	"time"
)

func TestTimeClocker_NewTicker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		d    time.Duration
	}{
		{name: "positive duration", d: 5 * time.Millisecond},
		{name: "zero falls back to default", d: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			c := New()

			// Act
			tk := c.NewTicker(tt.d)
			defer tk.Stop()

			// Assert
			if tk.C() == nil {
				t.Fatal("expected ticker channel")
			}
		})
	}
}

func TestTimeClocker_NewTickerFires(t *testing.T) {
	t.Parallel()

	tk := New().NewTicker(time.Millisecond)
	defer tk.Stop()

	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("ticker did not fire")
	}
}
