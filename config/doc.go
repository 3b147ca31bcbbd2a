// Package config loads service configuration with Viper.
//
// LoadConfig resolves a config.yml and an optional .env file for a service,
// lets environment variables override file values and unmarshals the result
// into a struct tagged with mapstructure keys:
//
//	var cfg AppConfig
//	err := config.LoadConfig("fluxdemo", &cfg, config.WithEnvPrefix("FLUXDEMO"))
//
// With the prefix above FLUXDEMO_STREAM_BATCH_SIZE overrides stream.batch_size.
// ServiceConfig and StreamConfig are meant to be embedded in application
// config structs.
package config
