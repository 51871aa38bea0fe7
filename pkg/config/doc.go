// Package config provides the configuration for callmock sessions and the
// callmock CLI.
//
// Configuration is read from YAML:
//
//	log:
//	  level: info        # debug, info, warn, error
//	  format: text       # text or json
//	  addSource: false
//	recorder:
//	  locking: rwmutex   # none or rwmutex
//	  haltOnMismatch: false
//	metrics:
//	  enabled: true
//	  namespace: callmock
//
// Missing sections keep their defaults:
//
//	cfg, err := config.LoadFromFile("callmock.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if result := cfg.Validate(); !result.IsValid() {
//	    log.Fatal(result.Error())
//	}
package config
