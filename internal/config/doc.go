// Package config provides configuration management for the sales dashboard.
// It loads settings from multiple sources, validates them, and exposes a
// typed Config to the rest of the application.
//
// # Configuration Sources
//
// Configuration is assembled in the following order, later sources winning:
//
//	1. Built-in defaults (Default)
//	2. A YAML file: $SALES_CONFIG, config.yaml or configs/config.yaml
//	3. Environment variables prefixed with SALES_
//
// # Environment Variables
//
//	SALES_SERVER_PORT=8080
//	SALES_LOGGING_LEVEL=debug
//	SALES_SOURCES_DATA_DIR=/srv/sales/data
//	SALES_SOURCES_PATTERN=sales_analysis_*_*.csv
//	SALES_SOURCES_LOCATIONS=north:/srv/n.csv,south:/srv/s.csv
//	SALES_SOURCES_STRICT=true
//
// # Sources
//
// Sales exports are discovered either by scanning Sources.DataDir for files
// matching Sources.Pattern, or from the static Sources.Locations table when it
// is non-empty. Columns listed in Sources.DropColumns (Cantidad by default) are
// removed after loading.
//
// # Example YAML
//
//	server:
//	  port: 8080
//	  read_timeout: 15s
//	logging:
//	  level: info
//	  output: both
//	  file_path: logs/dashboard.log
//	sources:
//	  locations:
//	    north: data/north.csv
//	    south: data/south.csv
//	  strict: false
package config
