// Package config loads and saves fit configuration as YAML.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultXTol       = 1e-8
	DefaultFTol       = 1e-8
	DefaultGrTol      = 1e-8
	DefaultIterations = 1000
	DefaultInitDelta  = 10.0
	DefaultShowEvery  = 1
)

type Config struct {
	Problem    string  `yaml:"problem"`
	Solver     string  `yaml:"solver"`
	XTol       float64 `yaml:"xtol"`
	FTol       float64 `yaml:"ftol"`
	GrTol      float64 `yaml:"grtol"`
	Iterations int     `yaml:"iterations"`
	InitDelta  float64 `yaml:"init_delta"`
	StoreTrace bool    `yaml:"store_trace"`
	ShowTrace  bool    `yaml:"show_trace"`
	ShowEvery  int     `yaml:"show_every"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem:    "expfit",
		Solver:     "cholesky",
		XTol:       DefaultXTol,
		FTol:       DefaultFTol,
		GrTol:      DefaultGrTol,
		Iterations: DefaultIterations,
		InitDelta:  DefaultInitDelta,
		StoreTrace: true,
		ShowEvery:  DefaultShowEvery,
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
