package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/CoopHive/bacalhau/pkg/config/types"
)

const (
	environmentVariablePrefix = "JOBVIEW"
	inferConfigTypes          = true
	automaticEnvVar           = true

	configType = "yaml"
)

var (
	environmentVariableReplace = strings.NewReplacer(".", "_")
	configDecoderHook          = viper.DecodeHook(mapstructure.TextUnmarshallerHookFunc())
)

type Params struct {
	// FileName is an optional YAML config file.
	FileName string
	// EnvFiles are dotenv files loaded into the environment first. Missing
	// files are skipped.
	EnvFiles []string
}

type Option func(params *Params)

func WithFileName(name string) Option {
	return func(params *Params) {
		params.FileName = name
	}
}

func WithEnvFiles(files ...string) Option {
	return func(params *Params) {
		params.EnvFiles = files
	}
}

// Load resolves the configuration from defaults, the config file, dotenv
// files, environment variables and any flags bound with viper, in
// increasing order of precedence.
func Load(opts ...Option) (types.JobViewConfig, error) {
	params := &Params{
		EnvFiles: []string{".env"},
	}
	for _, opt := range opts {
		opt(params)
	}

	if err := loadEnvFiles(params.EnvFiles); err != nil {
		return types.JobViewConfig{}, err
	}

	viper.SetConfigType(configType)
	viper.SetEnvPrefix(environmentVariablePrefix)
	viper.SetTypeByDefaultValue(inferConfigTypes)
	viper.SetEnvKeyReplacer(environmentVariableReplace)
	SetDefault(types.Default)

	if params.FileName != "" {
		viper.SetConfigFile(params.FileName)
		if err := readConfigFile(params.FileName); err != nil {
			return types.JobViewConfig{}, errors.Wrapf(err, "reading config file %s", params.FileName)
		}
	}

	if automaticEnvVar {
		viper.AutomaticEnv()
	}
	return GetConfig()
}

// GetConfig returns the current resolved configuration from viper.
func GetConfig() (types.JobViewConfig, error) {
	var out types.JobViewConfig
	if err := viper.Unmarshal(&out, configDecoderHook); err != nil {
		return types.JobViewConfig{}, err
	}
	out.API.URL = strings.TrimSuffix(out.API.URL, "/")
	if err := Validate(out); err != nil {
		return types.JobViewConfig{}, err
	}
	return out, nil
}

// Validate rejects values no command can work with.
func Validate(cfg types.JobViewConfig) error {
	if cfg.API.URL == "" {
		return fmt.Errorf("%s must be set", types.APIURL)
	}
	if cfg.API.Timeout.AsTimeDuration() <= 0 {
		return fmt.Errorf("%s must be positive, got %s", types.APITimeout, cfg.API.Timeout)
	}
	if cfg.API.Retries < 0 {
		return fmt.Errorf("%s must not be negative, got %d", types.APIRetries, cfg.API.Retries)
	}
	if cfg.Watch.Interval.AsTimeDuration() < 0 {
		return fmt.Errorf("%s must not be negative, got %s", types.WatchInterval, cfg.Watch.Interval)
	}
	return nil
}

// SetDefault registers cfg as the lowest precedence value of every key.
func SetDefault(cfg types.JobViewConfig) {
	viper.SetDefault(types.APIURL, cfg.API.URL)
	viper.SetDefault(types.APIToken, cfg.API.Token)
	viper.SetDefault(types.APITimeout, cfg.API.Timeout.String())
	viper.SetDefault(types.APIRetries, cfg.API.Retries)
	viper.SetDefault(types.WatchInterval, cfg.Watch.Interval.String())
	viper.SetDefault(types.WatchFirehose, cfg.Watch.Firehose)
}

func readConfigFile(fileName string) error {
	if _, err := os.Stat(fileName); os.IsNotExist(err) {
		// a missing config file means defaults and environment only
		log.Debug().Str("file", fileName).Msg("config file not found")
		return nil
	} else if err != nil {
		return err
	}
	return viper.ReadInConfig()
}

func loadEnvFiles(files []string) error {
	for _, file := range files {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			continue
		}
		// godotenv.Load never overrides variables that are already set
		if err := godotenv.Load(file); err != nil {
			return errors.Wrapf(err, "loading env file %s", file)
		}
	}
	return nil
}

// Reset clears all configuration, useful for testing.
func Reset() {
	viper.Reset()
}

// Getenv wraps os.Getenv and retrieves the value of the environment variable named by the config key.
func Getenv(key string) string {
	return os.Getenv(KeyAsEnvVar(key))
}

// KeyAsEnvVar returns the environment variable corresponding to a config key
func KeyAsEnvVar(key string) string {
	return strings.ToUpper(
		fmt.Sprintf("%s_%s", environmentVariablePrefix, environmentVariableReplace.Replace(key)),
	)
}
