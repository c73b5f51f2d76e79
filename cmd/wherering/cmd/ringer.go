package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/service/client"
)

func newRingerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ringer",
		Short: "Read or change the ringer mode.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the ringer mode and who set it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return client.GetRinger(ctx, clientOptions(cmd))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "set <" + strings.Join(modeNames(), "|") + ">",
		ValidArgs: modeNames(),
		Short:     "Change the ringer mode as the current user.",
		Long: `Changes the ringer mode on behalf of the current user. The engine treats it
as a manual override: when the device leaves the place that set the previous
mode, it will not restore over this change.

Retries until the server confirms the mode or the command is interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := ringer.ParseMode(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			return client.SetRinger(ctx, clientOptions(cmd), mode)
		},
	})

	return cmd
}

// modeNames lists the accepted ringer mode names, quietest first.
func modeNames() []string {
	modes := ringer.Modes()

	names := make([]string, 0, len(modes))
	for _, mode := range modes {
		names = append(names, mode.String())
	}

	return names
}

// modeChoices renders the mode names for flag help.
func modeChoices() string {
	names := modeNames()

	return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
}
