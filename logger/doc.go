// Package logger provides structured logging for compgraph using zerolog.
//
// Loggers write console or JSON output to stderr by default, so command
// output on stdout stays machine readable. A graph run stores its ID in
// the context; WithContext copies it onto every event.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "compgraph").WithComponent("graph")
//	log.Debug("stage finished", logger.Fields(logger.FieldStage, "sort"))
package logger
