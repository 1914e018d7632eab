package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/listview"
	"github.com/granme/caprisystem/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "CAPRI"

	cfgKeyBaseURL   = "api.base_url"
	cfgKeyTimeout   = "api.timeout"
	cfgKeyBackend   = "storage.backend"
	cfgKeyDataDir   = "storage.data_dir"
	cfgKeyLogLevel  = "log.level"
	cfgKeyPageSize  = "list.page_size"
	cfgKeyRetries   = "list.retries"
	cfgKeyRetryStep = "list.retry_step"

	defaultLogLevel = "warn"
)

// fileConfig is the layout of config.yaml.
type fileConfig struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Storage struct {
		Backend string `yaml:"backend"`
		DataDir string `yaml:"data_dir,omitempty"`
	} `yaml:"storage"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	List struct {
		PageSize  int    `yaml:"page_size"`
		Retries   int    `yaml:"retries"`
		RetryStep string `yaml:"retry_step"`
	} `yaml:"list"`
}

func defaultFileConfig(dataDir string) fileConfig {
	var c fileConfig
	c.API.BaseURL = apiclient.DefaultBaseURL
	c.API.Timeout = apiclient.DefaultTimeout.String()
	c.Storage.Backend = types.BackendSQLite
	c.Storage.DataDir = dataDir
	c.Log.Level = defaultLogLevel
	c.List.PageSize = listview.DefaultPageSize
	c.List.Retries = listview.DefaultRetries
	c.List.RetryStep = listview.DefaultRetryStep.String()
	return c
}

// settings is the effective configuration of one run.
type settings struct {
	BaseURL   string
	Timeout   time.Duration
	Storage   types.Config
	LogLevel  string
	PageSize  int
	Retries   int
	RetryStep time.Duration
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. CAPRI_* environment variables override the
// file, e.g. CAPRI_API_BASE_URL for api.base_url.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if _, err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), ""); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBaseURL, apiclient.DefaultBaseURL)
	v.SetDefault(cfgKeyTimeout, apiclient.DefaultTimeout)
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyPageSize, listview.DefaultPageSize)
	v.SetDefault(cfgKeyRetries, listview.DefaultRetries)
	v.SetDefault(cfgKeyRetryStep, listview.DefaultRetryStep)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func readSettings(v *viper.Viper, dataDir string) settings {
	return settings{
		BaseURL:   v.GetString(cfgKeyBaseURL),
		Timeout:   v.GetDuration(cfgKeyTimeout),
		Storage:   types.Config{Backend: v.GetString(cfgKeyBackend), DataDir: dataDir},
		LogLevel:  v.GetString(cfgKeyLogLevel),
		PageSize:  v.GetInt(cfgKeyPageSize),
		Retries:   v.GetInt(cfgKeyRetries),
		RetryStep: v.GetDuration(cfgKeyRetryStep),
	}
}

// writeConfigIfMissing creates config.yaml with default values and reports
// whether it wrote the file. An existing file is left alone.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultFileConfig(dataDir)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# CapriSystem admin client configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
