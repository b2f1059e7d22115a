package config

var Presets = map[string]map[string]*Config{
	"rankine_vortex": {
		"default": {
			Flow:        FlowConfig{Family: "rankine_vortex", Gamma: DefaultGamma, CoreRadius: DefaultCore},
			Orientation: "ccw", Direction: "in", Dt: 0.01, Duration: 2000.0,
			Mobile: PoseConfig{X: 1}, Target: PoseConfig{X: -1},
		},
		"opposed": {
			Flow:        FlowConfig{Family: "rankine_vortex", Gamma: 36.19, CoreRadius: 0.05},
			Orientation: "ccw", Direction: "in", Dt: 0.01, Duration: 2000.0,
			Mobile: PoseConfig{X: 32}, Target: PoseConfig{X: -32},
		},
		"noisy": {
			Flow: FlowConfig{
				Family: "rankine_vortex", Gamma: DefaultGamma, CoreRadius: DefaultCore,
				Noise: [2]float64{0.001, 0.001},
			},
			Orientation: "ccw", Direction: "in", Dt: 0.01, Duration: 2000.0,
			Mobile: PoseConfig{X: 1}, Target: PoseConfig{X: -1},
		},
	},
	"single_vortex": {
		"drift": {
			Flow:        FlowConfig{Family: "single_vortex", Gamma: DefaultGamma, CoreRadius: DefaultCore, Mu: 0.001},
			Orientation: "ccw", Direction: "in", Dt: 0.01, Duration: 2000.0,
			Mobile: PoseConfig{X: 1}, Target: PoseConfig{X: -1},
		},
		"steady": {
			Flow:        FlowConfig{Family: "single_vortex", Gamma: DefaultGamma, CoreRadius: DefaultCore, Mu: 0},
			Orientation: "ccw", Direction: "in", Dt: 0.01, Duration: 2000.0,
			Mobile: PoseConfig{X: 1}, Target: PoseConfig{X: -1},
		},
	},
	"double_gyre": {
		"default": {
			Flow: FlowConfig{
				Family: "double_gyre", Amplitude: 0.1, Spacing: 1.0, Mu: 0,
				Center: [2]float64{0.5, 0.5},
			},
			Orientation: "ccw", Direction: "in", Dt: 0.01, Duration: 2000.0,
			Mobile: PoseConfig{X: 0.8, Y: 0.5}, Target: PoseConfig{X: 0.2, Y: 0.5},
		},
	},
}

func GetPreset(family, preset string) *Config {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	cfg, ok := familyPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(family string) []string {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(familyPresets))
	for name := range familyPresets {
		names = append(names, name)
	}
	return names
}
