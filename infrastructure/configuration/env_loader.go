package configuration

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadEnvFromFile loads KEY=VALUE files (config.env, .env) into the process environment.
// Missing files are skipped and variables already set are never overridden.
func LoadEnvFromFile(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		v := viper.New()
		v.SetConfigFile(p)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			continue
		}
		for _, key := range v.AllKeys() {
			envKey := strings.ToUpper(key)
			if _, exists := os.LookupEnv(envKey); exists {
				continue
			}
			_ = os.Setenv(envKey, v.GetString(key))
		}
	}
}
