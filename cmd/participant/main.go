package main

import (
	"context"
	"log"
	"os"

	"github.com/absmach/federator/federatord"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const pathEnv = ".env"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := federatord.ParticipantConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if err := federatord.StartParticipant(ctx, cancel, cfg); err != nil {
		log.Fatalf("failed to start participant: %s", err.Error())
	}
}
