package cmd

import (
	"encoding/json"
	"os"

	"github.com/mstoykov/envconfig"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"gopkg.in/guregu/null.v3"
)

// Config is the consolidated CLI configuration. Each field can come from the
// config file, a WINDOWJS_* environment variable or a CLI flag, in that order
// of precedence.
type Config struct {
	BaseDir     null.String `json:"baseDir" envconfig:"base_dir"`
	HistoryFile null.String `json:"historyFile" envconfig:"history_file"`
	Welcome     null.Bool   `json:"welcome" envconfig:"welcome"`
}

// Gets configuration from CLI flags. Flags a command doesn't define simply
// stay unset.
func getFlagConfig(flags *pflag.FlagSet) Config {
	return Config{
		BaseDir:     getNullString(flags, "base-dir"),
		HistoryFile: getNullString(flags, "history-file"),
		Welcome:     getNullBool(flags, "welcome"),
	}
}

// Reads the configuration file from disk. A missing file is not an error:
// the defaults apply.
func readDiskConfig(fs afero.Fs, path string) (Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, err
	}
	var conf Config
	err = json.Unmarshal(data, &conf)
	return conf, err
}

// Reads configuration variables from the environment.
func readEnvConfig() (conf Config, err error) {
	err = envconfig.Process("windowjs", &conf)
	return conf, err
}

// Apply overlays cfg on top of c, field by field, and returns the result.
func (c Config) Apply(cfg Config) Config {
	if cfg.BaseDir.Valid {
		c.BaseDir = cfg.BaseDir
	}
	if cfg.HistoryFile.Valid {
		c.HistoryFile = cfg.HistoryFile
	}
	if cfg.Welcome.Valid {
		c.Welcome = cfg.Welcome
	}
	return c
}

// getConsolidatedConfig merges the defaults, the config file, the
// environment and the CLI flags, last one wins.
func getConsolidatedConfig(fs afero.Fs, flags *pflag.FlagSet, configPath string) (Config, error) {
	conf := Config{
		BaseDir: null.NewString(".", false),
		Welcome: null.NewBool(true, false),
	}

	if configPath != "" {
		diskConf, err := readDiskConfig(fs, configPath)
		if err != nil {
			return conf, err
		}
		conf = conf.Apply(diskConf)
	}

	envConf, err := readEnvConfig()
	if err != nil {
		return conf, err
	}
	conf = conf.Apply(envConf)

	return conf.Apply(getFlagConfig(flags)), nil
}
