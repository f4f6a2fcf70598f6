package cmd

import (
	"errors"
	"fmt"
	"os"

	"actionlog/internal/action"
	"actionlog/internal/host"
	"actionlog/internal/replay"
	"actionlog/internal/statecodec"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var (
	copyPlain bool
	copyPrint bool
)

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(copyCmd)

	copyCmd.Flags().BoolVar(&copyPlain, "plain", false, "copy only the descriptor, without the invocation wrapper")
	copyCmd.Flags().BoolVar(&copyPrint, "print", false, "print the snippet instead of copying it")
}

func newHostClient() *host.Client {
	return host.NewClient(cfg.Host.URL, host.WithLogger(logger))
}

var playCmd = &cobra.Command{
	Use:   "play <action-id>",
	Short: "Replay an action against the host and record the reply",
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

		engine := replay.NewEngine(newHostClient(),
			replay.WithTimeout(cfg.Host.GetTimeout()),
			replay.WithLogger(logger),
		)

		var reply action.PlayReply
		_, err = st.Update(cmd.Context(), func(s *statecodec.State) error {
			next, r, err := engine.Play(cmd.Context(), s.Actions, id)
			if err != nil {
				return err
			}
			s.Actions = next
			reply = r
			return nil
		})
		if err != nil {
			var execErr *replay.ExecutionError
			if errors.As(err, &execErr) && !execErr.Payload.IsNull() {
				logger.Error("host rejected command", "id", id, "payload", execErr.Payload.String())
			}
			return err
		}

		fmt.Printf("Played action %d → %d result(s)\n", id, len(reply.Descriptors))
		if len(reply.Descriptors) > 0 {
			out, err := replay.RenderReplies(action.Entry{PlayReplies: []action.PlayReply{reply}})
			if err != nil {
				return err
			}
			fmt.Println(out)
		}
		return nil
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy <action-id>",
	Short: "Copy an action's descriptor as a code snippet",
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

		decorate := state.Settings.DecorateSnippets
		if cmd.Flags().Changed("plain") {
			decorate = !copyPlain
		}
		text, err := replay.Template{Capability: state.Settings.Capability}.Encode(e.Descriptor, decorate)
		if err != nil {
			return err
		}

		if copyPrint {
			fmt.Println(text)
			return nil
		}
		if err := clipboard.WriteAll(text); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not copy to clipboard: %v\n", err)
			fmt.Println(text)
			return nil
		}
		fmt.Printf("Action %d copied to clipboard!\n", id)
		return nil
	},
}
