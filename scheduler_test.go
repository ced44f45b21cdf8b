package baraza

import (
	"reflect"
	"testing"
	"time"
)

func Test_scheduler_order(t *testing.T) {
	s := newScheduler()
	var got []string
	s.After(20*time.Millisecond, func() { got = append(got, "late") })
	s.After(5*time.Millisecond, func() { got = append(got, "early") })
	s.After(5*time.Millisecond, func() { got = append(got, "early-second") })
	s.After(-time.Second, func() { got = append(got, "now") })

	for s.step() {
	}

	want := []string{"now", "early", "early-second", "late"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("\nscheduler run order \ngot = %#+v, \nwanted = %#+v", got, want)
	}
	if s.Now() != 20*time.Millisecond {
		t.Errorf("\nscheduler.Now() \ngot = %v, \nwanted = %v", s.Now(), 20*time.Millisecond)
	}
}

func Test_scheduler_nestedEvents(t *testing.T) {
	s := newScheduler()
	var at []time.Duration
	s.After(time.Millisecond, func() {
		s.After(time.Millisecond, func() {
			at = append(at, s.Now())
		})
	})
	for s.step() {
	}
	want := []time.Duration{2 * time.Millisecond}
	if !reflect.DeepEqual(at, want) {
		t.Errorf("\nnested event times \ngot = %#+v, \nwanted = %#+v", at, want)
	}
}

func Test_scheduler_nextAt(t *testing.T) {
	s := newScheduler()
	if _, ok := s.nextAt(); ok {
		t.Errorf("empty scheduler should have no next event")
	}
	s.After(3*time.Millisecond, func() {})
	if at, ok := s.nextAt(); !ok || at != 3*time.Millisecond {
		t.Errorf("\nscheduler.nextAt() \ngot = %v, %v \nwanted = %v, true", at, ok, 3*time.Millisecond)
	}
}
