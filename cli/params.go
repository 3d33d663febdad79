package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

var paramsCmd = []cobra.Command{
	{
		Use:   "get [participant_id]",
		Short: "Get parameters",
		Long:  `Get the current global parameters. Passing a participant id marks it as seen.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) > 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			var id string
			if len(args) == 1 {
				id = args[0]
			}

			p, err := fsdk.FetchParameters(id)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, p)
		},
	},
	{
		Use:   "version <version>",
		Short: "Get parameters version",
		Long:  `Get a previously published version of the global parameters.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			version, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			p, err := fsdk.ParametersAt(version)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, p)
		},
	},
}

func NewParamsCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "params [get|version]",
		Short: "Global parameters",
		Long:  `View the global model parameters.`,
	}

	for i := range paramsCmd {
		cmd.AddCommand(&paramsCmd[i])
	}

	return &cmd
}
