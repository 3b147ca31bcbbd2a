// Package logger provides structured logging for fluxkit using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields. Stream operators log
// through it (see reactive.Log), tagging every line with the subscription
// and stage it belongs to.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("reactive")
//	log.Info("subscribed", logger.Fields(logger.FieldStage, "range"))
package logger
