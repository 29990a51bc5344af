package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Settings are the file/env-driven defaults behind the CLI flags. Flags win
// over the config file; the config file wins over these defaults. Env
// overrides use the BIZSIM_ prefix (BIZSIM_DATABASE_PATH, BIZSIM_RUN_SEED).
type Settings struct {
	Database struct {
		Path string
	}
	Personas struct {
		Dir string
	}
	Run struct {
		ID    string
		Seed  int64
		Start string
		End   string
	}
}

// LoadSettings reads settings from the config file and environment.
// BIZSIM_CONFIG points at an explicit file; otherwise ~/.config/bizsim is
// searched. A missing file is not an error.
func LoadSettings() (Settings, error) {
	v := viper.New()

	v.SetDefault("database.path", "bizsim.db")
	v.SetDefault("personas.dir", "personas")
	v.SetDefault("run.id", "")
	v.SetDefault("run.seed", 0)
	v.SetDefault("run.start", "")
	v.SetDefault("run.end", "")

	v.SetConfigType("yaml")
	if cfgPath := os.Getenv("BIZSIM_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "bizsim"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BIZSIM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = v.ReadInConfig()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}
