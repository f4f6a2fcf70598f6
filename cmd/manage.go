package cmd

import (
	"errors"
	"fmt"
	"os"

	"actionlog/internal/action"
	"actionlog/internal/statecodec"

	"github.com/spf13/cobra"
)

var (
	clearView    []int
	selectClear  bool
	exportOut    string
	exportSelect bool
	exportIDs    []int
	importIn     string
)

func init() {
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	clearCmd.Flags().IntSliceVar(&clearView, "view", nil, "ids of the actions currently in view")
	selectCmd.Flags().BoolVar(&selectClear, "clear", false, "clear the selection")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "file to write, or '-' for stdout")
	exportCmd.Flags().BoolVar(&exportSelect, "selected", false, "export only the selected actions (items only)")
	exportCmd.Flags().IntSliceVar(&exportIDs, "ids", nil, "export these actions instead of the stored selection (implies --selected)")
	importCmd.Flags().StringVarP(&importIn, "in", "i", "", "file to read, or '-' for stdin")
}

func channelFor(cmd *cobra.Command, path string) statecodec.Channel {
	if path == "-" {
		return statecodec.StreamChannel{R: cmd.InOrStdin(), W: cmd.OutOrStdout()}
	}
	return statecodec.FileChannel{Path: path}
}

var clearCmd = &cobra.Command{
	Use:       "clear <all|in-view|not-in-view|non-existent>",
	Short:     "Remove a group of actions from the log",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"all", "in-view", "not-in-view", "non-existent"},
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := action.ParseScope(args[0])
		if err != nil {
			return err
		}
		if (scope == action.ScopeInView || scope == action.ScopeNotInView) && !cmd.Flags().Changed("view") {
			return fmt.Errorf("clear %s needs --view", args[0])
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		opts := action.ClearOptions{View: action.NewIDSet(clearView...), Logger: logger}
		if scope == action.ScopeNonExistent {
			opts.Oracle = newHostClient()
		}

		var removed int
		_, err = st.Update(cmd.Context(), func(s *statecodec.State) error {
			next, n, err := action.Clear(cmd.Context(), s.Actions, scope, opts)
			if err != nil {
				return err
			}
			s.Actions = next
			s.Selected = keepExisting(s.Selected, next)
			removed = n
			return nil
		})
		if err != nil {
			return err
		}

		logger.Debug("cleared actions", "scope", scope, "removed", removed)
		fmt.Printf("Removed %d action(s)\n", removed)
		return nil
	},
}

var selectCmd = &cobra.Command{
	Use:   "select [action-id...]",
	Short: "Set the selected actions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		if len(ids) == 0 && !selectClear {
			return fmt.Errorf("give action ids or --clear")
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		_, err = st.Update(cmd.Context(), func(s *statecodec.State) error {
			for _, id := range ids {
				if _, ok := s.Actions.Find(id); !ok {
					return fmt.Errorf("%w: %d", action.ErrEntryNotFound, id)
				}
			}
			s.Selected = ids
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("Selected %d action(s)\n", len(ids))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:       "export <state|items>",
	Short:     "Export the app state or recorded actions",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"state", "items"},
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		state, err := st.Load(cmd.Context())
		if err != nil {
			return err
		}
		codec := statecodec.New(channelFor(cmd, exportOut), logger)

		switch args[0] {
		case "state":
			err = codec.ExportState(cmd.Context(), state)
		case "items":
			scope := action.ExportAll
			selected := state.SelectedSet()
			if exportSelect || cmd.Flags().Changed("ids") {
				scope = action.ExportSelected
			}
			if cmd.Flags().Changed("ids") {
				selected = action.NewIDSet(exportIDs...)
			}
			var entries []action.Entry
			entries, err = action.Select(state.Actions, scope, selected)
			if err == nil {
				err = codec.ExportItems(cmd.Context(), entries)
			}
		default:
			return fmt.Errorf("unknown export target %q", args[0])
		}

		if errors.Is(err, statecodec.ErrCancelled) {
			fmt.Fprintln(os.Stderr, "Export cancelled: no output path given (use --out)")
			return nil
		}
		if err != nil {
			return err
		}
		if exportOut != "-" {
			fmt.Printf("Exported %s to %s\n", args[0], exportOut)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:       "import <state|append|replace>",
	Short:     "Import app state, or add or replace recorded actions",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"state", "append", "replace"},
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		codec := statecodec.New(channelFor(cmd, importIn), logger)

		if args[0] == "state" {
			imported, err := codec.ImportState(cmd.Context())
			if err != nil {
				return err
			}
			if imported == nil {
				fmt.Println("Nothing imported")
				return nil
			}
			if err := st.Save(cmd.Context(), imported); err != nil {
				return err
			}
			fmt.Printf("Imported app state with %d action(s)\n", imported.Actions.Len())
			return nil
		}

		kind, err := action.ParseImportKind(args[0])
		if err != nil {
			return err
		}
		items, err := codec.ImportItems(cmd.Context(), kind)
		if err != nil {
			return err
		}
		if items == nil {
			fmt.Println("Nothing imported")
			return nil
		}

		var renumbered map[int]int
		_, err = st.Update(cmd.Context(), func(s *statecodec.State) error {
			next, r, err := action.Merge(s.Actions, items.Entries, items.Kind)
			if err != nil {
				return err
			}
			s.Actions = next
			s.Selected = keepExisting(s.Selected, next)
			renumbered = r
			return nil
		})
		if err != nil {
			return err
		}

		for from, to := range renumbered {
			logger.Info("renumbered imported action", "from", from, "to", to)
		}
		fmt.Printf("Imported %d action(s) (%s)\n", len(items.Entries), items.Kind)
		return nil
	},
}

// keepExisting drops selected ids that are no longer in the log.
func keepExisting(selected []int, c action.Collection) []int {
	out := make([]int, 0, len(selected))
	for _, id := range selected {
		if _, ok := c.Find(id); ok {
			out = append(out, id)
		}
	}
	return out
}
