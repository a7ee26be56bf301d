package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/avolkov/looplab/internal/control"
	"github.com/avolkov/looplab/internal/loop"
)

const (
	DefaultDt       = 0.1
	DefaultDuration = 60.0
	DefaultSteady   = 50.0
	DefaultKp       = 1.0
	DefaultKi       = 0.1
	DefaultKd       = 0.05
	DefaultGain     = 1.0
	DefaultTau      = 10.0
	DefaultOutMin   = 0.0
	DefaultOutMax   = 100.0
)

type Config struct {
	Dt               float64          `yaml:"dt"`
	Duration         float64          `yaml:"duration"`
	Speed            float64          `yaml:"speed"`
	Steady           float64          `yaml:"steady"`
	Seed             int64            `yaml:"seed"`
	SetpointTracking bool             `yaml:"setpoint_tracking"`
	Controller       ControllerConfig `yaml:"controller"`
	Process          ProcessConfig    `yaml:"process"`
	Steps            []StepConfig     `yaml:"steps"`
}

type ControllerConfig struct {
	Kp         float64 `yaml:"kp"`
	Ki         float64 `yaml:"ki"`
	Kd         float64 `yaml:"kd"`
	Algorithm  string  `yaml:"algorithm"`
	OutMin     float64 `yaml:"out_min"`
	OutMax     float64 `yaml:"out_max"`
	AntiWindup bool    `yaml:"anti_windup"`
}

type ProcessConfig struct {
	Gain         float64 `yaml:"gain"`
	TimeConstant float64 `yaml:"time_constant"`
	DeadTime     float64 `yaml:"dead_time"`
	Disturbance  float64 `yaml:"disturbance"`
}

type StepConfig struct {
	At       float64 `yaml:"at"`
	Setpoint float64 `yaml:"setpoint"`
}

func DefaultConfig() *Config {
	return &Config{
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Speed:    1.0,
		Steady:   DefaultSteady,
		Controller: ControllerConfig{
			Kp:         DefaultKp,
			Ki:         DefaultKi,
			Kd:         DefaultKd,
			Algorithm:  "basic",
			OutMin:     DefaultOutMin,
			OutMax:     DefaultOutMax,
			AntiWindup: true,
		},
		Process: ProcessConfig{
			Gain:         DefaultGain,
			TimeConstant: DefaultTau,
		},
		Steps: []StepConfig{
			{At: 5.0, Setpoint: 70.0},
		},
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

// LoopConfig translates the file-level configuration into the loop's typed
// config, resolving the algorithm name.
func (c *Config) LoopConfig() (loop.Config, error) {
	algo, err := control.ParseAlgorithm(c.Controller.Algorithm)
	if err != nil {
		return loop.Config{}, err
	}

	return loop.Config{
		Dt:               c.Dt,
		Speed:            c.Speed,
		Steady:           c.Steady,
		Kp:               c.Controller.Kp,
		Ki:               c.Controller.Ki,
		Kd:               c.Controller.Kd,
		Algorithm:        algo,
		OutMin:           c.Controller.OutMin,
		OutMax:           c.Controller.OutMax,
		AntiWindup:       c.Controller.AntiWindup,
		Gain:             c.Process.Gain,
		TimeConstant:     c.Process.TimeConstant,
		DeadTime:         c.Process.DeadTime,
		Disturbance:      c.Process.Disturbance,
		SetpointTracking: c.SetpointTracking,
		Seed:             c.Seed,
	}, nil
}
