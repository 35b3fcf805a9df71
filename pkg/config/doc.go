// Package config provides configuration management for hotpool processes.
//
// # Key Features
//
// - Config: one structure with a section per consuming package
// - YAML files loaded through viper, with HOTPOOL_* environment overrides
// - Defaults for every key, so an empty file or no file is valid
// - Validation that reports ErrorTypeConfig errors
//
// # Usage
//
// ## Loading
//
//	cfg, err := config.Load("hotpool.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Any key can be overridden from the environment by upper-casing its path
// and joining the parts with underscores:
//
//	HOTPOOL_POOL_INITIAL_SIZE=64
//	HOTPOOL_MEMORY_PROBE=process
//	HOTPOOL_MEMORY_INTERVAL=250ms
//
// ## Building components
//
//	monitor, err := cfg.Memory.NewMonitor()
//	stack, err := pool.NewStack(&cfg.Pool, orders.NewOrder,
//		pool.WithOwnedMonitor[*orders.Order](monitor))
//
// ## Writing
//
//	err := config.Save("hotpool.yaml", config.NewConfig())
//
// # Example YAML
//
//	memory:
//	  probe: runtime
//	  interval: 1s
//	pool:
//	  name: orders
//	  initial_size: 16
//	  primary_capacity: 128
//	  backup_capacity: 1024
//	  headroom_ratio: 0.05
//	logging:
//	  level: info
//	  encoding: json
//	metrics:
//	  enabled: true
//	  addr: ":9090"
package config
