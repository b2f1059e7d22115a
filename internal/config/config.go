// Package config loads and saves simulation configuration as YAML and
// translates it into flow specs and run parameters.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gyresim/internal/control"
	"github.com/san-kum/gyresim/internal/flow"
	"github.com/san-kum/gyresim/internal/sim"
	"github.com/san-kum/gyresim/internal/swimmer"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 2000.0
	DefaultGamma    = 0.0565
	DefaultCore     = 0.05
	DefaultWorkers  = 0 // one per CPU
)

type Config struct {
	Flow        FlowConfig `yaml:"flow"`
	Orientation string     `yaml:"orientation"`
	Direction   string     `yaml:"direction"`
	Dt          float64    `yaml:"dt"`
	Duration    float64    `yaml:"duration"`
	Mobile      PoseConfig `yaml:"mobile"`
	Target      PoseConfig `yaml:"target"`
	Iterations  int        `yaml:"iterations"`
	Workers     int        `yaml:"workers"`
	Seed        int64      `yaml:"seed"`
	Limits      Limits     `yaml:"limits"`
}

type FlowConfig struct {
	Family     string     `yaml:"family"`
	Gamma      float64    `yaml:"gamma"`
	CoreRadius float64    `yaml:"core_radius"`
	Amplitude  float64    `yaml:"amplitude"`
	Spacing    float64    `yaml:"spacing"`
	Mu         float64    `yaml:"mu"`
	Center     [2]float64 `yaml:"center"`
	Noise      [2]float64 `yaml:"noise"`
}

type PoseConfig struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Theta float64 `yaml:"theta"`
}

// Limits bounds randomized spawn positions for batch sweeps.
type Limits struct {
	XMin float64 `yaml:"x_min"`
	XMax float64 `yaml:"x_max"`
	YMin float64 `yaml:"y_min"`
	YMax float64 `yaml:"y_max"`
}

func DefaultConfig() *Config {
	return &Config{
		Flow: FlowConfig{
			Family:     "rankine_vortex",
			Gamma:      DefaultGamma,
			CoreRadius: DefaultCore,
		},
		Orientation: "ccw",
		Direction:   "in",
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Mobile:      PoseConfig{X: 1},
		Target:      PoseConfig{X: -1},
		Iterations:  50,
		Workers:     DefaultWorkers,
		Limits:      Limits{XMin: -1.5, XMax: 1.5, YMin: -1.5, YMax: 1.5},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// FlowSpec translates the flow section. The single-vortex family cannot
// carry an arbitrary profile through YAML, so it takes the Rankine
// tangential profile built from gamma and core_radius.
func (c *Config) FlowSpec() (flow.Spec, error) {
	family, err := flow.ParseFamily(c.Flow.Family)
	if err != nil {
		return flow.Spec{}, err
	}

	spec := flow.Spec{
		Family: family,
		Center: flow.Vec2{X: c.Flow.Center[0], Y: c.Flow.Center[1]},
		Noise:  flow.Vec2{X: c.Flow.Noise[0], Y: c.Flow.Noise[1]},
	}

	switch family {
	case flow.FamilyRankineVortex:
		spec.Rankine = flow.RankineParams{Gamma: c.Flow.Gamma, CoreRadius: c.Flow.CoreRadius}
	case flow.FamilySingleVortex:
		if c.Flow.CoreRadius <= 0 {
			return flow.Spec{}, fmt.Errorf("%w: single vortex profile needs a positive core_radius", flow.ErrBadParams)
		}
		spec.Single = flow.SingleVortexParams{
			Profile: flow.RankineProfile(c.Flow.Gamma, c.Flow.CoreRadius),
			Mu:      c.Flow.Mu,
		}
	case flow.FamilyDoubleGyre:
		spec.Gyre = flow.DoubleGyreParams{
			Amplitude: c.Flow.Amplitude,
			Spacing:   c.Flow.Spacing,
			Mu:        c.Flow.Mu,
		}
	}
	return spec, nil
}

// Params translates the full config into run parameters, failing fast on
// any unrecognized name.
func (c *Config) Params() (sim.Params, error) {
	spec, err := c.FlowSpec()
	if err != nil {
		return sim.Params{}, err
	}
	ori, err := control.ParseOrientation(c.Orientation)
	if err != nil {
		return sim.Params{}, err
	}
	dir, err := control.ParseDirection(c.Direction)
	if err != nil {
		return sim.Params{}, err
	}

	return sim.Params{
		TotalTime:   c.Duration,
		Timestep:    c.Dt,
		Flow:        spec,
		Orientation: ori,
		Direction:   dir,
	}, nil
}

// MobilePose and TargetPose translate the initial pose sections.
func (c *Config) MobilePose() swimmer.Pose {
	return swimmer.Pose{X: c.Mobile.X, Y: c.Mobile.Y, Theta: c.Mobile.Theta}
}

func (c *Config) TargetPose() swimmer.Pose {
	return swimmer.Pose{X: c.Target.X, Y: c.Target.Y, Theta: c.Target.Theta}
}
