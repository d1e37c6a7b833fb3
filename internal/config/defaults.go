package config

// DefaultConfig returns the default browserslist-lint settings
func DefaultConfig() *Config {
	return &Config{
		Log: LoggingConfig{
			Level: "warn",
		},
		Color: ColorAuto,
	}
}
