/*
Package baraza simulates single-value Paxos consensus among role-typed nodes
(proposers, acceptors, learners) over a network that introduces random delay,
message loss and node failure/recovery. Its name is the Swahili word for a
council gathered to reach an agreement.

The simulation is a discrete-event loop over a simulated clock, so a run is
fully deterministic under a fixed seed: message deliveries, proposer phase
deadlines and failure checks are all scheduled events, and every node handler
runs inline on the loop. Acceptor state is durable behind a StableStore, the
same interface hashicorp/raft uses, so simulated crash and recovery keep the
promises that make Paxos safe. What happened during a run is observable
through the event sink.

Example usage:

	package main

	import (
		"fmt"

		"github.com/osiemo/baraza"
		"github.com/sirupsen/logrus"
	)

	func main() {
		cfg := baraza.GenerateConfig(2, 5, 2)
		cfg.MessageLoss = 0.1
		cfg.Seed = 42

		c, err := baraza.NewCoordinator(cfg, baraza.NewLogSink(logrus.StandardLogger()), nil)
		if err != nil {
			panic(err)
		}
		report, err := c.Run()
		if err != nil {
			panic(err)
		}
		for _, o := range report.Outcomes {
			fmt.Printf("learner %d decided %q with ballot %v\n", o.Learner, o.Value, o.Ballot)
		}
	}
*/
package baraza
