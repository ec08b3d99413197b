package pastesvc

import (
	"time"
)

// Config holds the paste service tunables.
type Config struct {
	// Backend selects the storage implementation: "sqlite", "s3" or "memory".
	Backend string `yaml:"backend" json:"backend"`
	// PublicBaseURL is the externally reachable prefix retrieval URLs are
	// built from, e.g. "https://paste.example.com/v1/paste". Empty means the
	// handler derives it from the incoming request.
	PublicBaseURL string `yaml:"public_base_url" json:"public_base_url"`
	// Retention is how long entries stay retrievable after upload.
	Retention time.Duration `yaml:"retention" json:"retention"`
	// SweepSchedule is a cron expression for the purge job. Descriptors like
	// "@hourly" are accepted.
	SweepSchedule string `yaml:"sweep_schedule" json:"sweep_schedule"`
	MaxBodyBytes  int64  `yaml:"max_body_bytes" json:"max_body_bytes"`

	SQLite SQLiteConfig `yaml:"sqlite" json:"sqlite"`
	S3     S3Config     `yaml:"s3" json:"s3"`
}

// WithDefaults fills in zero fields with sensible defaults.
func (c Config) WithDefaults() Config {
	if c.Backend == "" {
		c.Backend = "sqlite"
	}
	if c.Retention <= 0 {
		c.Retention = 30 * 24 * time.Hour
	}
	if c.SweepSchedule == "" {
		c.SweepSchedule = "@hourly"
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 16 * 1024 * 1024
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = "pastes.db"
	}
	return c
}
