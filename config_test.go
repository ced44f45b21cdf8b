package baraza

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		NumProposers: 2,
		NumAcceptors: 5,
		NumLearners:  2,
		MessageLoss:  0.1,
		MinDelay:     10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		FailureProb:  0.05,
		RecoveryProb: 0.2,
	}
}

func Test_config_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "zero acceptors", mutate: func(c *Config) { c.NumAcceptors = 0 }, wantErr: true},
		{name: "zero proposers", mutate: func(c *Config) { c.NumProposers = 0 }, wantErr: true},
		{name: "zero learners", mutate: func(c *Config) { c.NumLearners = 0 }, wantErr: true},
		{name: "negative loss", mutate: func(c *Config) { c.MessageLoss = -0.1 }, wantErr: true},
		{name: "loss above one", mutate: func(c *Config) { c.MessageLoss = 1.5 }, wantErr: true},
		{name: "failure prob above one", mutate: func(c *Config) { c.FailureProb = 2 }, wantErr: true},
		{name: "negative recovery prob", mutate: func(c *Config) { c.RecoveryProb = -1 }, wantErr: true},
		{name: "negative delay", mutate: func(c *Config) { c.MinDelay = -time.Second }, wantErr: true},
		{name: "min delay above max", mutate: func(c *Config) { c.MinDelay = 2 * c.MaxDelay }, wantErr: true},
		{name: "negative round budget", mutate: func(c *Config) { c.MaxRounds = -1 }, wantErr: true},
		{name: "wrong number of initial values", mutate: func(c *Config) { c.InitialValues = []string{"X"} }, wantErr: true},
		{name: "matching initial values", mutate: func(c *Config) { c.InitialValues = []string{"X", "Y"} }, wantErr: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("\nConfig.Validate() \nerror = %v, \nwantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				if _, ok := err.(ConfigError); !ok {
					t.Errorf("\nConfig.Validate() error type \ngot = %T, \nwanted = ConfigError", err)
				}
			}
		})
	}
}

func Test_config_withDefaults(t *testing.T) {
	c := validConfig().withDefaults()
	if len(c.InitialValues) != c.NumProposers {
		t.Errorf("\ndefault initial values \ngot = %#+v, \nwanted %d of them", c.InitialValues, c.NumProposers)
	}
	if c.RoundTimeout != 4*c.MaxDelay {
		t.Errorf("\ndefault round timeout \ngot = %v, \nwanted = %v", c.RoundTimeout, 4*c.MaxDelay)
	}
	if c.CheckInterval != 5*time.Second {
		t.Errorf("\ndefault check interval \ngot = %v, \nwanted = %v", c.CheckInterval, 5*time.Second)
	}
	if c.MaxSimTime != time.Minute {
		t.Errorf("\ndefault time budget \ngot = %v, \nwanted = %v", c.MaxSimTime, time.Minute)
	}
	if c.MaxRounds != 10 {
		t.Errorf("\ndefault round budget \ngot = %#+v, \nwanted = %#+v", c.MaxRounds, 10)
	}

	// a zero-delay run still gets a usable deadline
	zero := validConfig()
	zero.MaxDelay, zero.MinDelay = 0, 0
	if got := zero.withDefaults().RoundTimeout; got != 10*time.Millisecond {
		t.Errorf("\nround timeout floor \ngot = %v, \nwanted = %v", got, 10*time.Millisecond)
	}
}

func Test_config_saveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	want := validConfig()
	want.InitialValues = []string{"X", "Y"}
	want.CheckInterval = 2 * time.Second
	want.RoundTimeout = 500 * time.Millisecond
	want.MaxSimTime = 30 * time.Second
	want.MaxRounds = 7
	want.SilentRejects = true
	want.Seed = 42

	if err := SaveConfig(want, path); err != nil {
		t.Fatalf("SaveConfig() error: %#+v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %#+v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("\nconfig round trip \ngot = %#+v, \nwanted = %#+v", got, want)
	}
}

func Test_config_loadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	bad := validConfig()
	bad.NumAcceptors = 0
	if err := SaveConfig(bad, path); err != nil {
		t.Fatalf("SaveConfig() error: %#+v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("LoadConfig() accepted a config with zero acceptors")
	}
}

func Test_config_loadMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Errorf("LoadConfig() accepted a missing file")
	}
}

func Test_generateConfig(t *testing.T) {
	c := GenerateConfig(3, 5, 2)
	if c.NumProposers != 3 || c.NumAcceptors != 5 || c.NumLearners != 2 {
		t.Errorf("\ngenerated counts \ngot = %#+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("\ngenerated config does not validate: %#+v", err)
	}
}
