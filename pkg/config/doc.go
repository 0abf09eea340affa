// Package config defines the Vantage configuration model and loading logic.
//
// # Overview
//
// Configuration is read from a single YAML file and layered as follows:
//
//  1. DefaultConfig provides the baseline.
//  2. The YAML file is unmarshalled over it.
//  3. VANTAGE_* environment variables override individual fields.
//  4. Validate rejects the result if any field is out of range.
//
// # Usage
//
//	cfg, err := config.LoadConfigWithEnvOverrides("vantage.yaml")
//	if err != nil {
//	    return err
//	}
//
// # Hot reload
//
// Watcher observes the configuration file via fsnotify and invokes a reload
// callback after a debounced change, which the run command uses to swap the
// probe target set without a restart.
package config
