package meta

const (
	// CLIName is the binary name and the base for environment variables
	// (PEGASUS_PROFILE, PEGASUS_<PROFILE>_...) and the config directory.
	CLIName = "pegasus"

	// ProductName is the human readable name of the backing system.
	ProductName = "Pegasus Passive Infra"
)
