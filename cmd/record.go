package cmd

import (
	"fmt"

	"actionlog/internal/capture"
	"actionlog/internal/statecodec"

	"github.com/spf13/cobra"
)

var (
	recordExpanded bool
)

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().BoolVar(&recordExpanded, "expanded", false, "record the entry expanded instead of using the configured default")
}

var recordCmd = &cobra.Command{
	Use:   "record <title> [descriptor-file|-|clipboard]",
	Short: "Append a captured command descriptor to the log",
	Long: `Append a captured command descriptor to the log. The descriptor is read as JSON
from the given file, from the system clipboard when the source is 'clipboard',
or from stdin when the source is '-' or omitted. A JSON array records one entry
per element.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := args[0]
		src := "-"
		if len(args) == 2 {
			src = args[1]
		}

		descs, err := capture.NewReader(cmd.InOrStdin()).Descriptors(src)
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		var ids []int
		_, err = st.Update(cmd.Context(), func(s *statecodec.State) error {
			collapsed := s.Settings.CollapseNew
			if cmd.Flags().Changed("expanded") {
				collapsed = !recordExpanded
			}
			for _, d := range descs {
				next, e := s.Actions.Add(title, d, collapsed)
				s.Actions = next
				ids = append(ids, e.ID)
			}
			return nil
		})
		if err != nil {
			return err
		}

		logger.Debug("recorded actions", "ids", ids, "title", title)
		for _, id := range ids {
			fmt.Printf("Recorded %q → action %d\n", title, id)
		}
		return nil
	},
}
