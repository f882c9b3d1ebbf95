package voxscreen

import "time"

type Config struct {
	ModelPath  string
	HistoryDSN string
	Model      Model
	History    HistoryStore
	Logger     Logger
	Now        func() time.Time
}

type Option func(*Config)

func WithModelPath(path string) Option {
	return func(c *Config) {
		c.ModelPath = path
	}
}

// WithModel injects an already loaded model, bypassing ModelPath.
func WithModel(m Model) Option {
	return func(c *Config) {
		c.Model = m
	}
}

func WithHistoryDSN(dsn string) Option {
	return func(c *Config) {
		c.HistoryDSN = dsn
	}
}

// WithHistory injects a history store, bypassing HistoryDSN.
func WithHistory(h HistoryStore) Option {
	return func(c *Config) {
		c.History = h
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithClock overrides the timestamp source for decision records.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

func defaultConfig() *Config {
	return &Config{
		ModelPath:  "depression_model.json",
		HistoryDSN: "",
		Logger:     nil,
	}
}
