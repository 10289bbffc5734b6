package common

import "fmt"

// OutputFormat is an enum of valid values for the output of a command execution.
type OutputFormat int

type LogLevel int

type ColorMode int

const (
	TEXT OutputFormat = iota
	JSON
	YAML
)

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

const (
	ColorModeAuto ColorMode = iota
	ColorModeAlways
	ColorModeNever
)

const (
	// related to the --output flag
	DefaultOutputFormat = "text"
	OutputFlagName      = "output"
	OutputFlagShort     = "o"
	OutputConfigPath    = OutputFlagName

	// related to the --profile flag
	ProfileFlagName  = "profile"
	ProfileFlagShort = "p"

	// related to the --config-file flag
	ConfigFilePathFlagName = "config-file"

	// related to the --log-level flag
	LogLevelFlagName   = "log-level"
	DefaultLogLevel    = "info"
	LogLevelConfigPath = LogLevelFlagName

	// related to the --interactive flag
	InteractiveFlagName  = "interactive"
	InteractiveFlagShort = "i"

	// selects the color palette for interactive and dashboard rendering
	ThemeConfigPath = "theme"

	// Pegasus API settings, nested under the "pegasus" config section
	BaseURLFlagName      = "base-url"
	BaseURLConfigSubPath = BaseURLFlagName
	BaseURLConfigPath    = "pegasus." + BaseURLConfigSubPath
	DefaultBaseURL       = "http://localhost:8000"

	RequestTimeoutFlagName      = "request-timeout"
	RequestTimeoutConfigSubPath = RequestTimeoutFlagName
	RequestTimeoutConfigPath    = "pegasus." + RequestTimeoutConfigSubPath
	DefaultRequestTimeoutSecs   = 60

	PageSizeFlagName      = "page-size"
	PageSizeConfigSubPath = PageSizeFlagName
	PageSizeConfigPath    = "pegasus." + PageSizeConfigSubPath
	DefaultPageSize       = 50
)

func (of OutputFormat) String() string {
	return [...]string{"text", "json", "yaml"}[of]
}

func OutputFormatStringToIota(format string) (OutputFormat, error) {
	switch format {
	case "text":
		return TEXT, nil
	case "json":
		return JSON, nil
	case "yaml":
		return YAML, nil
	default:
		return TEXT, fmt.Errorf("invalid output format %q, must be one of %v",
			format, []string{"text", "json", "yaml"})
	}
}

func (ll LogLevel) String() string {
	return [...]string{"trace", "debug", "info", "warn", "error"}[ll]
}

func LogLevelStringToIota(level string) (LogLevel, error) {
	switch level {
	case "trace":
		return TRACE, nil
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return ERROR, fmt.Errorf("invalid log level %q, must be one of %v", level,
			[]string{"trace", "debug", "info", "warn", "error"})
	}
}

func (cm ColorMode) String() string {
	switch cm {
	case ColorModeAlways:
		return "always"
	case ColorModeNever:
		return "never"
	default:
		return "auto"
	}
}

func ColorModeStringToIota(mode string) (ColorMode, error) {
	switch mode {
	case "auto", "":
		return ColorModeAuto, nil
	case "always":
		return ColorModeAlways, nil
	case "never":
		return ColorModeNever, nil
	default:
		return ColorModeAuto, fmt.Errorf("invalid color mode %q, must be one of %v", mode,
			[]string{"auto", "always", "never"})
	}
}
