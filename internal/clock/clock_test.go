package clock

import (
	"testing"
	"time"
)

func TestRealClockNowAdvances(t *testing.T) {
	c := RealClock{}
	t1 := c.Now()
	t2 := c.Now()
	if t2.Before(t1) {
		t.Errorf("expected time to move forward or stay equal, got %v then %v", t1, t2)
	}
}

func TestRealClockAfterFires(t *testing.T) {
	c := RealClock{}
	select {
	case <-c.After(time.Millisecond):
	case <-time.After(time.Second):
		t.Errorf("expected timer to fire within a second")
	}
}
