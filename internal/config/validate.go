package config

import (
	"fmt"
	"strings"
	"time"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var formKinds = map[string]bool{"weapon": true, "actor": true, "list": true}

// ValidateRaw checks semantic constraints of a RawConfig.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	// data
	if strings.TrimSpace(cfg.Data.MeshesDir) == "" {
		errs = append(errs, "data.meshes_dir is required")
	}
	if strings.TrimSpace(cfg.Data.OverrideDir) == "" {
		errs = append(errs, "data.override_dir is required")
	} else if strings.ContainsAny(cfg.Data.OverrideDir, `/\`) {
		errs = append(errs, "data.override_dir must be a single folder name")
	}

	// primary: base without ref makes no sense
	if cfg.Primary.Base != nil && cfg.Primary.Ref == nil {
		errs = append(errs, "primary.base requires primary.ref")
	}

	// watch
	if cfg.Watch != nil && cfg.Watch.Interval != "" {
		d, err := time.ParseDuration(cfg.Watch.Interval)
		if err != nil {
			errs = append(errs, "watch.interval must be a duration, e.g. 2s")
		} else if d <= 0 {
			errs = append(errs, "watch.interval must be > 0")
		}
	}

	if cfg.Log.Level != "" && !logLevels[strings.ToLower(cfg.Log.Level)] {
		errs = append(errs, "log.level must be one of: debug, info, warn, error")
	}

	// fixture (optional)
	if cfg.Fixture != nil {
		if len(cfg.Fixture.Mods) > 0xFF {
			errs = append(errs, "fixture.mods supports at most 255 entries")
		}
		seen := map[uint32]bool{}
		for i, f := range cfg.Fixture.Forms {
			if !formKinds[strings.ToLower(f.Kind)] {
				errs = append(errs, fmt.Sprintf("fixture.forms[%d].kind must be one of: weapon, actor, list", i))
			}
			if seen[f.ID] {
				errs = append(errs, fmt.Sprintf("fixture.forms[%d].id %08X is duplicated", i, f.ID))
			}
			seen[f.ID] = true
			if len(f.Members) > 0 && !strings.EqualFold(f.Kind, "list") {
				errs = append(errs, fmt.Sprintf("fixture.forms[%d].members only apply to lists", i))
			}
		}
		for stem := range cfg.Fixture.Groups {
			if strings.TrimSpace(stem) == "" {
				errs = append(errs, "fixture.groups keys must be non-empty")
				break
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
