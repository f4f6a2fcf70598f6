package cmd

import (
	"fmt"
	"strconv"

	"actionlog/internal/replay"
	"actionlog/internal/statecodec"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(toggleCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded actions",
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

		if state.Actions.Len() == 0 {
			fmt.Println("No actions yet — run 'actionlog record' first")
			return nil
		}

		selected := state.SelectedSet()
		title := color.New(color.FgCyan).SprintFunc()
		mark := color.New(color.FgYellow).SprintFunc()

		fmt.Printf("%-6s %-3s %-8s %s\n", "ID", "SEL", "REPLIES", "TITLE")
		fmt.Println("─────────────────────────────────────────────────────")
		for _, e := range state.Actions.Entries() {
			sel := " "
			if selected.Has(e.ID) {
				sel = mark("*")
			}
			arrow := "⮟"
			if e.Collapsed {
				arrow = "⮞"
			}
			fmt.Printf("%-6d %-3s %-8d %s %s\n", e.ID, sel, len(e.PlayReplies), arrow, title(e.Title))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <action-id>",
	Short: "Show the descriptor and replies of an action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		state, err := st.Load(cmd.Context())
		if err != nil {
			return err
		}

		e, ok := state.Actions.Find(id)
		if !ok {
			return fmt.Errorf("action %d not found", id)
		}

		tmpl := replay.Template{Capability: state.Settings.Capability}
		code, err := tmpl.Encode(e.Descriptor, state.Settings.DecorateSnippets)
		if err != nil {
			return err
		}

		fmt.Printf("Action:    %d\n", e.ID)
		fmt.Printf("Title:     %s\n", e.Title)
		fmt.Printf("Collapsed: %t\n", e.Collapsed)
		fmt.Printf("Replies:   %d\n\n", len(e.PlayReplies))
		fmt.Println(code)

		replies, err := replay.RenderReplies(e)
		if err != nil {
			return err
		}
		if replies != "" {
			fmt.Println("\nReplies:")
			for _, r := range e.PlayReplies {
				fmt.Printf("  %s  %d result(s)\n", r.Time.Local().Format("2006-01-02 15:04:05"), len(r.Descriptors))
			}
			fmt.Println(replies)
		}
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <action-id>",
	Short: "Collapse or expand an action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		state, err := st.Update(cmd.Context(), func(s *statecodec.State) error {
			next, err := s.Actions.Toggle(id)
			if err != nil {
				return err
			}
			s.Actions = next
			return nil
		})
		if err != nil {
			return err
		}

		e, _ := state.Actions.Find(id)
		if e.Collapsed {
			fmt.Printf("Action %d collapsed\n", id)
		} else {
			fmt.Printf("Action %d expanded\n", id)
		}
		return nil
	},
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid action id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
