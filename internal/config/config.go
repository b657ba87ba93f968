// Package config supplies the run configuration consumed by the feeder
// loop. The loop reads configuration through the Provider interface and
// takes one Snapshot per tick, so a value that changes mid-tick (e.g. from
// a UI control) never produces an internally inconsistent pass.
package config

import (
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultBaud      = 115200
	DefaultScaleMBps = 200.0
	DefaultHz        = 5
)

// Provider exposes the user-tunable options as synchronous getters. Getters
// may be called from a different control context than the feeder worker and
// must each return a self-consistent value on every call.
type Provider interface {
	Port() string
	Baud() int
	GPUEnabled() bool
	GPUIndex() int
	DiskScaleMBps() float64
	Volumes() []string
}

// Snapshot is one tick's view of the configuration. Take evaluates each
// getter exactly once; the collector works off the Snapshot for the whole
// tick.
type Snapshot struct {
	Port          string
	Baud          int
	GPUEnabled    bool
	GPUIndex      int
	DiskScaleMBps float64
	Volumes       []string
}

func Take(p Provider) Snapshot {
	return Snapshot{
		Port:          p.Port(),
		Baud:          p.Baud(),
		GPUEnabled:    p.GPUEnabled(),
		GPUIndex:      p.GPUIndex(),
		DiskScaleMBps: p.DiskScaleMBps(),
		Volumes:       p.Volumes(),
	}
}

// Static is a fixed Provider built once at startup from environment
// variables and command-line flags.
type Static struct {
	PortName  string   `env:"FEEDER_PORT"`
	BaudRate  int      `env:"FEEDER_BAUD" envDefault:"115200"`
	GPU       bool     `env:"FEEDER_GPU" envDefault:"true"`
	GPUDevice int      `env:"FEEDER_GPU_INDEX" envDefault:"0"`
	DiskScale float64  `env:"FEEDER_DISK_SCALE" envDefault:"200"`
	VolumeIDs []string `env:"FEEDER_VOLUMES" envSeparator:","`
}

// FromEnv loads a Static provider with defaults applied from the
// environment.
func FromEnv() (*Static, error) {
	s := &Static{}
	if err := env.Parse(s); err != nil {
		return nil, err
	}
	if len(s.VolumeIDs) == 0 {
		s.VolumeIDs = defaultVolumes()
	}
	return s, nil
}

func (s *Static) Port() string           { return s.PortName }
func (s *Static) Baud() int              { return s.BaudRate }
func (s *Static) GPUEnabled() bool       { return s.GPU }
func (s *Static) GPUIndex() int          { return s.GPUDevice }
func (s *Static) DiskScaleMBps() float64 { return s.DiskScale }

func (s *Static) Volumes() []string { return s.VolumeIDs }

// SetVolumes replaces the volume list, trimming blanks. Called by the CLI
// when -volumes is given.
func (s *Static) SetVolumes(csv string) {
	var vols []string
	for _, v := range strings.Split(csv, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			vols = append(vols, v)
		}
	}
	if len(vols) > 0 {
		s.VolumeIDs = vols
	}
}
