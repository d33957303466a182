package config

var Presets = map[string]*Config{
	"accurate": {
		Solver: "qr", XTol: 1e-12, FTol: 1e-12, GrTol: 1e-12,
		Iterations: 5000, InitDelta: DefaultInitDelta, StoreTrace: true,
		ShowEvery: DefaultShowEvery,
	},
	"coarse": {
		Solver: "cholesky", XTol: 1e-4, FTol: 1e-4, GrTol: 1e-4,
		Iterations: 200, InitDelta: DefaultInitDelta, StoreTrace: true,
		ShowEvery: DefaultShowEvery,
	},
	"cautious": {
		Solver: "qr", XTol: DefaultXTol, FTol: DefaultFTol, GrTol: DefaultGrTol,
		Iterations: DefaultIterations, InitDelta: 0.1, StoreTrace: true,
		ShowEvery: DefaultShowEvery,
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
