package profile

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultProfile = "default"
)

type Manager interface {
	GetProfiles() []string
	GetProfile(name string) (map[string]any, error)
}

type profileManager struct {
	config *viper.Viper
}

// Empty type to represent the _type_ Manager. Genesis is to support a key in a Context
type Key struct{}

// ProfileManagerKey is a global instance of the Key type
var ProfileManagerKey = Key{}

func (v *profileManager) GetProfiles() []string {
	keyMap := make(map[string]bool)
	for _, key := range v.config.AllKeys() {
		keyMap[strings.Split(key, ".")[0]] = true
	}

	profiles := make([]string, 0, len(keyMap))
	for key := range keyMap {
		profiles = append(profiles, key)
	}
	return profiles
}

func (v *profileManager) GetProfile(name string) (map[string]any, error) {
	return v.config.GetStringMap(name), nil
}

func NewManager(config *viper.Viper) Manager {
	return &profileManager{
		config: config,
	}
}
