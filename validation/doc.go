// Package validation checks configuration structs and request parameters.
//
// Struct tag validation uses go-playground/validator and reports fields by
// their mapstructure (or json) name, so messages match the keys users write
// in config.yml:
//
//	type StreamConfig struct {
//	    BatchSize int64 `mapstructure:"batch_size" validate:"gte=1"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic checks collect errors the same way:
//
//	v := validation.New()
//	v.Positive("batch", batch)
//	err := v.Err()
package validation
