// Package config provides configuration parsing for hookrt.
//
// The configuration is optional. When present it lives at the working
// directory in hookrt.json, hookrt.yaml or hookrt.yml, checked in that
// order.
//
// # Configuration File Structure
//
//	debug: false
//	max_passes_per_flush: 50
//	log:
//	  level: info
//	host:
//	  queue_size: 256
//	devtools:
//	  addr: localhost:7070
//	metrics:
//	  enabled: true
//	  namespace: hookrt
//	tracing:
//	  enabled: false
//	  tracer_name: github.com/vango-dev/hookrt
//
// The JSON form uses the same structure with camelCase keys
// (maxPassesPerFlush, queueSize, tracerName).
//
// # Usage
//
//	cfg, err := config.LoadOptional(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Devtools:", cfg.Devtools.Addr)
package config
