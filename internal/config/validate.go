package config

import (
	"errors"
	"fmt"
)

// MaxSQLiteBatchSize keeps one multi-row insert of the widest deck table
// (6 columns) under SQLite's default limit of 32766 bound parameters.
const MaxSQLiteBatchSize = 32766 / 6

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", c.Timeout)
	}
	if c.Cache.Dir == "" {
		return errors.New("cache.dir is required")
	}

	if err := c.JMdict.validate(); err != nil {
		return fmt.Errorf("jmdict: %w", err)
	}
	if err := c.Audio.validate(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	if err := c.Store.validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	return nil
}

func (j *JMdictConfig) validate() error {
	switch j.Layout {
	case LayoutRanked, LayoutDense:
	default:
		return fmt.Errorf("unknown layout %q (want %q or %q)", j.Layout, LayoutRanked, LayoutDense)
	}
	if err := validateLimit(j.LimitMode, j.LimitValue); err != nil {
		return err
	}
	if j.RowLimit <= 0 {
		return fmt.Errorf("row_limit must be > 0 (got %d)", j.RowLimit)
	}
	return nil
}

func (a *AudioConfig) validate() error {
	if err := validateLimit(a.LimitMode, a.LimitValue); err != nil {
		return err
	}
	if a.RowLimit <= 0 {
		return fmt.Errorf("row_limit must be > 0 (got %d)", a.RowLimit)
	}
	return nil
}

func validateLimit(mode string, value int) error {
	switch mode {
	case LimitModeLines, LimitModeRank:
	default:
		return fmt.Errorf("unknown limit_mode %q (want %q or %q)", mode, LimitModeLines, LimitModeRank)
	}
	if value < 0 {
		return fmt.Errorf("limit_value must be >= 0 (got %d)", value)
	}
	return nil
}

func (s *StoreConfig) validate() error {
	switch s.Driver {
	case DriverNone:
		return nil
	case DriverPostgres:
		if s.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for the postgres driver")
		}
	case DriverSQLite:
		if s.SQLite.Path == "" {
			return errors.New("sqlite.path is required for the sqlite driver")
		}
		if s.BatchSize > MaxSQLiteBatchSize {
			return fmt.Errorf("batch_size must be <= %d for the sqlite driver (got %d)", MaxSQLiteBatchSize, s.BatchSize)
		}
	default:
		return fmt.Errorf("unknown driver %q", s.Driver)
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", s.BatchSize)
	}
	return nil
}
