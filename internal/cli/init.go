package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/granme/caprisystem/internal/paths"
	"github.com/granme/caprisystem/internal/storage"
	"github.com/granme/caprisystem/pkg/types"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "init",
		Short:       "Create the configuration and the local session storage",
		Long:        "init writes a default config.yaml when none exists and creates the data directory\nthat keeps the session between runs. Running it again changes nothing.",
		Args:        cobra.NoArgs,
		Annotations: skipsSetup,
		RunE:        runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dataFlag := flags.dataDir
	if dataFlag != "" {
		abs, err := filepath.Abs(dataFlag)
		if err != nil {
			return err
		}
		dataFlag = abs
	}

	var backend, configPath string
	var written bool
	dirs, err := paths.Resolve(flags.configDir, dataFlag, func(dir string) (string, error) {
		configPath = filepath.Join(dir, configFileExt)
		var err error
		if written, err = writeConfigIfMissing(configPath, dataFlag); err != nil {
			return "", fmt.Errorf("write config: %w", err)
		}
		v, err := loadConfig(dir)
		if err != nil {
			return "", err
		}
		backend = v.GetString(cfgKeyBackend)
		return v.GetString(cfgKeyDataDir), nil
	})
	if err != nil {
		return err
	}

	kv, err := storage.Open(types.Config{Backend: backend, DataDir: dirs.Data})
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	if err := kv.Detach(); err != nil {
		return fmt.Errorf("finalize storage: %w", err)
	}

	out := cmd.OutOrStdout()
	if flags.jsonMode {
		return printJSON(out, map[string]any{
			"config":  configPath,
			"data":    dirs.Data,
			"backend": backend,
			"created": written,
		})
	}
	fmt.Fprintln(out, "CapriSystem inicializado")
	fmt.Fprintln(out, "  config:", configPath)
	fmt.Fprintln(out, "  data:  ", dirs.Data)
	return nil
}
