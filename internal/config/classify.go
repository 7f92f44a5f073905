package config

import "time"

// ClassifyPlaneConfig configures the classification REST API server.
// This is the picker-facing read path, so its timeouts are tighter than the
// control plane's.
type ClassifyPlaneConfig struct {
	Port              string        `envconfig:"PORT" default:"8081"`
	Host              string        `envconfig:"HOST" default:"0.0.0.0"`
	ReadTimeout       time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout      time.Duration `envconfig:"WRITE_TIMEOUT" default:"5s"`
	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"2s"`
	IdleTimeout       time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`

	// MaxImportBytes caps the size of an uploaded CSV export.
	MaxImportBytes int64 `envconfig:"MAX_IMPORT_BYTES" default:"10485760" validate:"min=1"` // 10MB
}

// Validate performs validation on the ClassifyPlaneConfig.
func (c *ClassifyPlaneConfig) Validate() error {
	// Validate port
	if err := validatePort(c.Port, "classify plane"); err != nil {
		return err
	}

	// Validate host
	if err := validateHost(c.Host, "classify plane"); err != nil {
		return err
	}

	return nil
}
