package config

import "strings"

// Environment names the deployment stage a process runs in.
type Environment string

const (
	// EnvDevelopment is the default stage for local runs.
	EnvDevelopment Environment = "development"
	// EnvProduction hides internal error detail from API callers.
	EnvProduction Environment = "production"
)

// ParseEnvironment normalizes a raw stage name; unknown values fall back to
// development.
func ParseEnvironment(raw string) Environment {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

// IsProduction reports whether the stage is production.
func (e Environment) IsProduction() bool {
	return e == EnvProduction
}
