package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"actionlog/internal/config"
	"actionlog/internal/store"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize an action log in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveProjectDir()
		if err != nil {
			return err
		}

		dbFile := filepath.Join(dir, store.DirName, store.DBName)
		if _, err := os.Stat(dbFile); err == nil {
			fmt.Printf("Already initialized — %s/%s exists\n", store.DirName, store.DBName)
			return nil
		}

		st, err := store.New(dir)
		if err != nil {
			return fmt.Errorf("init failed: %w", err)
		}
		defer st.Close()

		state, err := st.Load(cmd.Context())
		if err != nil {
			return err
		}
		state.Settings.CollapseNew = *cfg.Defaults.Collapsed
		state.Settings.DecorateSnippets = *cfg.Defaults.DecorateSnippets
		state.Settings.Capability = cfg.Host.Capability
		if err := st.Save(cmd.Context(), state); err != nil {
			return err
		}

		cfgFile := filepath.Join(dir, store.DirName, config.FileName)
		if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
			if err := config.Save(cfgFile, cfg); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
		}

		logger.Debug("initialized action log", "dir", dir)
		fmt.Printf("Initialized actionlog in %s\n", dir)
		fmt.Printf("Action log created at %s/%s\n", store.DirName, store.DBName)
		return nil
	},
}
