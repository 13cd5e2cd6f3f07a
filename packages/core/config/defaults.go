package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		BackendURL:  "http://localhost:4723",
		Timeout:     30000, // 30 seconds
		Retries:     0,
		RetryDelay:  1000, // 1 second
		ValidateSSL: BoolPtr(true),
		Screenshots: BoolPtr(true),
		Bulk: BulkConfig{
			Parallel:      BoolPtr(false),
			MaxConcurrent: 5,
			StopOnError:   BoolPtr(false),
		},
		Logger: LoggerConfig{
			Level:      "info",
			Format:     "console",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
		HistoryPath: ".hitflow/history.db",
		Verbose:     BoolPtr(false),
		NoColor:     BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	d := DefaultConfig()
	return c.BackendURL == d.BackendURL &&
		c.DeviceID == d.DeviceID &&
		c.DefaultEnvironment == d.DefaultEnvironment &&
		c.Timeout == d.Timeout &&
		c.Retries == d.Retries &&
		c.RetryDelay == d.RetryDelay &&
		c.GetValidateSSL() == d.GetValidateSSL() &&
		c.GetScreenshots() == d.GetScreenshots() &&
		c.Proxy == d.Proxy &&
		len(c.Headers) == 0 &&
		len(c.Environments) == 0 &&
		c.EnvFile == d.EnvFile &&
		c.Bulk.GetParallel() == d.Bulk.GetParallel() &&
		c.Bulk.MaxConcurrent == d.Bulk.MaxConcurrent &&
		c.Bulk.GetStopOnError() == d.Bulk.GetStopOnError() &&
		c.Bulk.Delay == d.Bulk.Delay &&
		c.Bulk.RateLimit == d.Bulk.RateLimit &&
		c.Logger == d.Logger &&
		c.HistoryPath == d.HistoryPath &&
		c.GetVerbose() == d.GetVerbose() &&
		c.GetNoColor() == d.GetNoColor()
}
