package main

import (
	"log"
	"os"

	"github.com/absmach/federator/federatord"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	rootCmd := &cobra.Command{
		Use:   "federatord",
		Short: "Federator Daemon",
		Long:  `Federator Daemon runs the round coordinator and participant nodes.`,
	}

	rootCmd.AddCommand(federatord.NewCoordinatorCmd())
	rootCmd.AddCommand(federatord.NewParticipantCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
