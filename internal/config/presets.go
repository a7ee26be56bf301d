package config

// Presets are ready-made loop configurations for common teaching setups.
var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"sluggish": {
		Dt: 0.1, Duration: 120.0, Speed: 1.0, Steady: 50.0,
		Controller: ControllerConfig{
			Kp: 0.8, Ki: 0.05, Kd: 0.0, Algorithm: "basic",
			OutMin: 0, OutMax: 100, AntiWindup: true,
		},
		Process: ProcessConfig{Gain: 1.2, TimeConstant: 30.0},
		Steps:   []StepConfig{{At: 10.0, Setpoint: 70.0}},
	},
	"deadtime": {
		Dt: 0.1, Duration: 90.0, Speed: 1.0, Steady: 50.0,
		Controller: ControllerConfig{
			Kp: 0.6, Ki: 0.08, Kd: 0.0, Algorithm: "pi-d",
			OutMin: 0, OutMax: 100, AntiWindup: true,
		},
		Process: ProcessConfig{Gain: 1.0, TimeConstant: 10.0, DeadTime: 3.0},
		Steps:   []StepConfig{{At: 5.0, Setpoint: 65.0}},
	},
	"noisy": {
		Dt: 0.1, Duration: 60.0, Speed: 1.0, Steady: 50.0,
		Controller: ControllerConfig{
			Kp: 1.0, Ki: 0.1, Kd: 0.0, Algorithm: "pi-d",
			OutMin: 0, OutMax: 100, AntiWindup: true,
		},
		Process: ProcessConfig{Gain: 1.0, TimeConstant: 10.0, Disturbance: 20.0},
		Steps:   []StepConfig{{At: 5.0, Setpoint: 70.0}},
	},
	"aggressive": {
		Dt: 0.05, Duration: 30.0, Speed: 1.0, Steady: 50.0,
		Controller: ControllerConfig{
			Kp: 4.0, Ki: 0.8, Kd: 0.2, Algorithm: "i-pd",
			OutMin: 0, OutMax: 100, AntiWindup: true,
		},
		Process: ProcessConfig{Gain: 1.0, TimeConstant: 5.0, DeadTime: 0.5},
		Steps:   []StepConfig{{At: 2.0, Setpoint: 80.0}},
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
