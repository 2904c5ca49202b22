package controllers

import (
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

const envPrefix = "refupdate"

// flagValues binds the command flags to viper so each one can also be set
// through a REFUPDATE_* environment variable.
func flagValues(cmd *cobra.Command) *viper.Viper {
	values := viper.New()
	values.SetEnvPrefix(envPrefix)
	values.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	values.AutomaticEnv()
	if err := values.BindPFlags(cmd.Flags()); err != nil {
		logger.Warnf("Failed to bind flags: %v", err)
	}
	return values
}

// loadSettings reads the configuration file named by --config, or the first
// one found in the default locations. Without a file, defaults are used and
// tokens come from the environment.
func loadSettings(values *viper.Viper) (*entities.Settings, error) {
	path := values.GetString("config")
	if path == "" {
		found, err := entities.FindConfigFile()
		if err != nil {
			logger.Debug("No config file found, using defaults")
			return applyOverrides(entities.DefaultSettings(), values), nil
		}
		path = found
	}

	logger.Infof("Using config file: %s", path)
	settings, err := entities.NewSettings(path)
	if err != nil {
		return nil, err
	}
	return applyOverrides(settings, values), nil
}

// applyOverrides lets flags win over the configuration file.
func applyOverrides(settings *entities.Settings, values *viper.Viper) *entities.Settings {
	if token := values.GetString("token"); token != "" {
		provider := values.GetString("provider")
		if provider == "" {
			provider = entities.ProviderGitHub
		}
		settings.Providers = append(
			[]entities.ProviderConfig{{Type: provider, Token: token}},
			settings.Providers...,
		)
	}
	if concurrency := values.GetInt("concurrency"); concurrency > 0 {
		settings.Concurrency = concurrency
	}
	if advisories := values.GetStringSlice("advisories"); len(advisories) > 0 {
		settings.Advisories = append(settings.Advisories, advisories...)
	}
	return settings
}
