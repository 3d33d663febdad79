package main

import (
	"log"
	"time"

	"github.com/absmach/federator/cli"
	"github.com/absmach/federator/pkg/sdk"
	"github.com/spf13/cobra"
)

const defTimeout = 30 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "federator-cli",
		Short: "Federator CLI",
		Long:  `Federator CLI is a command line interface for the round coordinator.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			s := sdk.NewSDK(sdk.Config{
				CoordinatorURL:  cli.DefCoordinatorURL,
				TLSVerification: cli.DefTLSVerification,
				CBOR:            cli.DefCBOR,
				Timeout:         defTimeout,
			})
			cli.SetSDK(s)
		},
	}

	rootCmd.AddCommand(cli.NewRoundsCmd())
	rootCmd.AddCommand(cli.NewParamsCmd())
	rootCmd.AddCommand(cli.NewParticipantsCmd())
	rootCmd.AddCommand(cli.NewInitCmd())

	rootCmd.PersistentFlags().StringVarP(
		&cli.DefCoordinatorURL,
		"coordinator-url",
		"u",
		cli.DefCoordinatorURL,
		"Coordinator URL",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&cli.DefTLSVerification,
		"tls-verification",
		"v",
		cli.DefTLSVerification,
		"TLS Verification",
	)

	rootCmd.PersistentFlags().BoolVar(
		&cli.DefCBOR,
		"cbor",
		cli.DefCBOR,
		"Exchange parameters as CBOR",
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
