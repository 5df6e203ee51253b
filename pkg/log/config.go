package log

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Level       string
	Format      string
	Environment string
	ServiceName string
	Version     string

	// OutputPath is stdout, stderr or a file path rotated by lumberjack.
	OutputPath string

	FileMaxSizeInMB  int
	FileMaxAgeInDays int
	FileMaxBackups   int
	CompressRotated  bool

	DisableCaller     bool
	DisableStacktrace bool
	SamplingConfig    *SamplingConfig

	InitialFields map[string]interface{}
}

type SamplingConfig struct {
	Initial    int
	Thereafter int
	Tick       time.Duration
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error, fatal", c.Level)
	}

	switch strings.ToLower(c.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q, must be 'json' or 'console'", c.Format)
	}

	if c.FileMaxSizeInMB <= 0 || c.FileMaxAgeInDays <= 0 {
		return fmt.Errorf("file rotation size and age must be greater than 0")
	}
	if c.FileMaxBackups < 0 {
		return fmt.Errorf("file_max_backups must be greater than or equal to 0")
	}

	if s := c.SamplingConfig; s != nil && (s.Initial <= 0 || s.Thereafter <= 0) {
		return fmt.Errorf("sampling initial and thereafter must be greater than 0")
	}
	return nil
}

func DefaultConfig() Config {
	return Config{
		Level:            "info",
		Format:           "json",
		Environment:      "development",
		ServiceName:      "bill-tracker",
		Version:          "0.0.0",
		OutputPath:       "stdout",
		FileMaxSizeInMB:  100,
		FileMaxAgeInDays: 30,
		FileMaxBackups:   10,
		CompressRotated:  true,
		InitialFields:    make(map[string]interface{}),
	}
}

func DevelopmentConfig() Config {
	config := DefaultConfig()
	config.Level = "debug"
	config.Format = "console"
	return config
}

func ProductionConfig(serviceName, version string) Config {
	config := DefaultConfig()
	config.Environment = "production"
	config.ServiceName = serviceName
	config.Version = version
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.SamplingConfig = &SamplingConfig{
		Initial:    100,
		Thereafter: 100,
	}
	return config
}
