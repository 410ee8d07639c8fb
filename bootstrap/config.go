package bootstrap

import (
	"github.com/kbukum/httpconnector/config"
)

// Config is the constraint for application configuration types. A struct
// embedding config.ServiceConfig satisfies it through promoted methods.
//
//	type ConnectorConfig struct {
//	    config.ServiceConfig `mapstructure:",squash"`
//	    Requesters []requester.Config `mapstructure:"requesters"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
