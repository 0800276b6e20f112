package config

import (
	"strings"

	"github.com/spf13/viper"
)

// newEnv returns a viper instance that resolves keys straight from the
// process environment. Each loader owns its instance so defaults never leak
// between concerns.
func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}
