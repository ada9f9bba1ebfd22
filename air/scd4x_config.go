package air

import (
	"context"
	"fmt"
)

// Configuration holds the user settings kept in the sensor's RAM (and in
// EEPROM after PersistSettings).
type Configuration struct {
	TemperatureOffset float64 `yaml:"temperature_offset"`
	Altitude          uint16  `yaml:"altitude"`
	ASCEnabled        bool    `yaml:"asc_enabled"`
	ASCTarget         uint16  `yaml:"asc_target"`
}

// Configuration reads all user settings. Idle mode only.
func (s *SCD4x) Configuration(ctx context.Context) (Configuration, error) {
	var cfg Configuration
	var err error
	if cfg.TemperatureOffset, err = s.GetTemperatureOffset(ctx); err != nil {
		return cfg, err
	}
	if cfg.Altitude, err = s.GetAltitude(ctx); err != nil {
		return cfg, err
	}
	if cfg.ASCEnabled, err = s.GetAutomaticSelfCalibration(ctx); err != nil {
		return cfg, err
	}
	if cfg.ASCTarget, err = s.GetASCTarget(ctx); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyConfiguration writes the settings that differ from the sensor's current
// ones and reports whether anything was written. Nothing is persisted.
func (s *SCD4x) ApplyConfiguration(ctx context.Context, cfg Configuration) (bool, error) {
	current, err := s.Configuration(ctx)
	if err != nil {
		return false, fmt.Errorf("could not read current configuration: %w", err)
	}
	changed := false
	// compare encoded words, the offset does not survive a float round trip
	want, err := offsetToWord(cfg.TemperatureOffset)
	if err != nil {
		return false, fmt.Errorf("scd4x: %w", err)
	}
	have, _ := offsetToWord(current.TemperatureOffset)
	if want != have {
		if err := s.SetTemperatureOffset(ctx, cfg.TemperatureOffset); err != nil {
			return changed, err
		}
		changed = true
	}
	if cfg.Altitude != current.Altitude {
		if err := s.SetAltitude(ctx, int(cfg.Altitude)); err != nil {
			return changed, err
		}
		changed = true
	}
	if cfg.ASCEnabled != current.ASCEnabled {
		if err := s.SetAutomaticSelfCalibration(ctx, cfg.ASCEnabled); err != nil {
			return changed, err
		}
		changed = true
	}
	if cfg.ASCTarget != current.ASCTarget {
		if err := s.SetASCTarget(ctx, int(cfg.ASCTarget)); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}
