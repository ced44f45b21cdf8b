package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	raftboltdb "github.com/hashicorp/raft-boltdb"
	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"

	"github.com/osiemo/baraza"
)

func main() {
	var (
		configPath     = flag.String("config", "config.json", "path to the configuration file")
		generateConfig = flag.Bool("generate-config", false, "generate a default configuration file and run with it")
		numProposers   = flag.Int("num-proposers", 3, "number of proposers in a generated config")
		numAcceptors   = flag.Int("num-acceptors", 5, "number of acceptors in a generated config")
		numLearners    = flag.Int("num-learners", 2, "number of learners in a generated config")
		logLevel       = flag.String("log-level", "info", "log level: debug, info, warning or error")
		messageLoss    = flag.Float64("message-loss", 0.0, "probability of message loss (0.0-1.0)")
		minDelay       = flag.Float64("min-delay", 0.01, "minimum message delay in seconds")
		maxDelay       = flag.Float64("max-delay", 0.1, "maximum message delay in seconds")
		failureProb    = flag.Float64("failure-prob", 0.05, "probability of node failure during a check")
		recoveryProb   = flag.Float64("recovery-prob", 0.2, "probability of node recovery during a check")
		seed           = flag.Int64("seed", 0, "random seed for deterministic replay")
		storeDir       = flag.String("store-dir", "", "directory for bolt-backed acceptor state; empty keeps state in memory")
	)
	flag.Parse()

	log := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("invalid log level %q: %v", *logLevel, err)
	}
	log.SetLevel(level)

	cfg, err := loadOrGenerateConfig(*configPath, *generateConfig, *numProposers, *numAcceptors, *numLearners)
	if err != nil {
		log.Fatalf("error loading configuration: %v", err)
	}

	// the network and failure parameters always come from the flags, like
	// the rest of the command line surface
	cfg.MessageLoss = *messageLoss
	cfg.MinDelay = time.Duration(*minDelay * float64(time.Second))
	cfg.MaxDelay = time.Duration(*maxDelay * float64(time.Second))
	cfg.FailureProb = *failureProb
	cfg.RecoveryProb = *recoveryProb
	cfg.Seed = *seed

	var stores baraza.StoreFactory
	if *storeDir != "" {
		if err := os.MkdirAll(*storeDir, 0o755); err != nil {
			log.Fatalf("unable to create store directory: %v", err)
		}
		stores = func(acceptorID uint64) (baraza.StableStore, error) {
			return raftboltdb.NewBoltStore(filepath.Join(*storeDir, fmt.Sprintf("acceptor-%d.db", acceptorID)))
		}
	}

	coordinator, err := baraza.NewCoordinator(cfg, baraza.NewLogSink(log), stores)
	if err != nil {
		log.Fatalf("error setting up simulation: %v", err)
	}

	log.Info("starting simulation")
	report, err := coordinator.Run()
	if err != nil {
		log.Fatalf("protocol violation: %v", err)
	}

	for _, o := range report.Outcomes {
		if o.Decided {
			log.Infof("learner %d decided %q with ballot %v", o.Learner, o.Value, o.Ballot)
		} else {
			log.Warnf("learner %d did not decide", o.Learner)
		}
	}
	if report.Decided {
		log.Infof("consensus reached after %v of simulated time", report.Elapsed)
	} else {
		log.Warn("consensus not reached within the budget; this can be due to simulated failures or message losses")
	}
	log.Debug(litter.Sdump(report))

	if !report.Decided {
		os.Exit(2)
	}
}

func loadOrGenerateConfig(path string, generate bool, numProposers, numAcceptors, numLearners int) (baraza.Config, error) {
	if generate {
		cfg := baraza.GenerateConfig(numProposers, numAcceptors, numLearners)
		if err := baraza.SaveConfig(cfg, path); err != nil {
			return baraza.Config{}, err
		}
		logrus.Infof("generated default configuration and saved to %v", path)
	}
	return baraza.LoadConfig(path)
}
