// Package config loads compgraph configuration.
//
// Values come from a YAML file (compgraph.yml in the working directory or
// ./config/), an optional .env file, and COMPGRAPH_-prefixed environment
// variables, in that order of precedence from lowest to highest.
//
//	name: compgraph
//	logging:
//	  level: debug
//	engine:
//	  check_grouping: true
//	  join_left_suffix: _left
//	  join_right_suffix: _right
//	telemetry:
//	  enabled: true
//	  endpoint: localhost:4318
//
// Load applies defaults and validates the result with struct tags.
package config
