// Package validation checks configuration structs before components start.
//
// Tag validation uses go-playground/validator with mapstructure field names,
// so messages name the keys users actually write in YAML:
//
//	type Settings struct {
//	    MaxConnections int `mapstructure:"max_connections" validate:"gte=0"`
//	}
//	err := validation.Validate(settings)
//
// Cross-field rules go through the collecting Validator:
//
//	v := validation.New()
//	v.OneOf("retry_timeout", mode, []string{"fresh", "remaining"})
//	return v.Validate()
package validation
