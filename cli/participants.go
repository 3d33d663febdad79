package cli

import (
	"github.com/absmach/federator/pkg/sdk"
	"github.com/spf13/cobra"
)

var participantsCmd = []cobra.Command{
	{
		Use:   "list",
		Short: "List participants",
		Long:  `List registered participants and their liveness.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := fsdk.ListParticipants()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	},
	{
		Use:   "join <id> <address>",
		Short: "Join participant",
		Long:  `Register a participant reachable at address.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			p, err := fsdk.JoinParticipant(sdk.Participant{
				ID:      args[0],
				Address: args[1],
			})
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, p)
		},
	},
	{
		Use:   "leave <id>",
		Short: "Remove participant",
		Long:  `Remove a participant from the registry.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			if err := fsdk.LeaveParticipant(args[0]); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	},
}

func NewParticipantsCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "participants [list|join|leave]",
		Short: "Participants management",
		Long:  `List, join and remove participants.`,
	}

	for i := range participantsCmd {
		cmd.AddCommand(&participantsCmd[i])
	}

	return &cmd
}
