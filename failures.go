package baraza

import (
	"math/rand"
	"time"
)

// failureSimulator periodically toggles node liveness. On every check tick
// each alive node fails with probability failProb and each failed node
// recovers with probability recoverProb. It owns its own seeded randomness
// source, separate from the network's, so the two can be replayed
// independently.
type failureSimulator struct {
	nw          *Network
	sched       *scheduler
	rng         *rand.Rand
	failProb    float64
	recoverProb float64
	interval    time.Duration
	stopped     bool
}

func newFailureSimulator(nw *Network, sched *scheduler, rng *rand.Rand, failProb, recoverProb float64, interval time.Duration) *failureSimulator {
	return &failureSimulator{
		nw:          nw,
		sched:       sched,
		rng:         rng,
		failProb:    failProb,
		recoverProb: recoverProb,
		interval:    interval,
	}
}

// start schedules the first check tick.
func (f *failureSimulator) start() {
	f.sched.After(f.interval, f.check)
}

// stop prevents further check ticks from being scheduled.
func (f *failureSimulator) stop() {
	f.stopped = true
}

func (f *failureSimulator) check() {
	if f.stopped {
		return
	}
	// registration order, so a fixed seed replays the same toggles
	for _, id := range f.nw.order {
		if f.nw.alive(id) {
			if f.rng.Float64() < f.failProb {
				f.nw.fail(id)
			}
		} else if f.rng.Float64() < f.recoverProb {
			f.nw.recover(id)
		}
	}
	f.sched.After(f.interval, f.check)
}
