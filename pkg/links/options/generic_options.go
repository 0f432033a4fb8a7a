package options

import (
	"regexp"

	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"
)

func OutputDir() cfg.Param {
	return cfg.NewParam[string]("output", "output directory").
		WithShortcode("o").
		WithDefault("azure_enum_rbac")
}

func LogLevel() cfg.Param {
	return cfg.NewParam[string]("log-level", "log level").
		WithDefault("none").
		WithRegex(regexp.MustCompile("^(none|debug|info|warn|error)$"))
}
