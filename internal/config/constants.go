package config

// Version is the mmdispatch release.
const Version = "0.3.0"

// ConfigFileName is the file FindConfig looks for.
const ConfigFileName = "mmdispatch.yaml"

// ConfigFileNames are all recognized config file names, in lookup order.
var ConfigFileNames = []string{"mmdispatch.yaml", "mmdispatch.yml"}

// Environment overrides
const (
	EnvLogLevel    = "MMDISPATCH_LOG_LEVEL"
	EnvColor       = "MMDISPATCH_COLOR"
	EnvAutoRebuild = "MMDISPATCH_AUTO_REBUILD"
)

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// OrdinaryParam marks an ordinary parameter in schema files.
const OrdinaryParam = "_"
