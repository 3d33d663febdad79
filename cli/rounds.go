package cli

import (
	"github.com/spf13/cobra"
)

var roundsCmd = []cobra.Command{
	{
		Use:   "trigger",
		Short: "Trigger round",
		Long:  `Start a round unless one is already in flight.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			r, err := fsdk.TriggerRound()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, r)
		},
	},
	{
		Use:   "aggregate",
		Short: "Aggregate now",
		Long:  `Close the open round, aggregate the collected updates and broadcast the result.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			out, err := fsdk.AggregateNow()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, out)
		},
	},
	{
		Use:   "current",
		Short: "Current round",
		Long:  `View the state of the latest round.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			r, err := fsdk.CurrentRound()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, r)
		},
	},
}

func NewRoundsCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "rounds [trigger|aggregate|current]",
		Short: "Rounds management",
		Long:  `Trigger, aggregate and inspect training rounds.`,
	}

	for i := range roundsCmd {
		cmd.AddCommand(&roundsCmd[i])
	}

	return &cmd
}
