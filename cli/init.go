package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/0x6flab/namegenerator"
	"github.com/absmach/federator"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

const (
	defConfigPath      = "config.toml"
	defParticipants    = 3
	defParticipantPort = 6001
)

var (
	errInvalidCount = errors.New("participant count must be a positive integer")
	errInvalidURL   = errors.New("coordinator url must be an absolute http(s) url")
)

type nameGenerator interface {
	Generate() string
}

// libNames adapts namegenerator.NameGenerator, whose Generate takes
// variadic options, to nameGenerator.
type libNames struct {
	gen namegenerator.NameGenerator
}

func (l libNames) Generate() string {
	return l.gen.Generate()
}

type initOptions struct {
	path         string
	participants int
	basePort     int
	yes          bool
}

func NewInitCmd() *cobra.Command {
	opts := initOptions{
		path:         defConfigPath,
		participants: defParticipants,
		basePort:     defParticipantPort,
	}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a deployment config",
		Long: `Write a TOML file with the coordinator URL and a set of named participants.

Examples:
  # Answer the prompts
  federator-cli init

  # Use flags only
  federator-cli init --yes --participants 5 --config fed.toml`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			coordinatorURL := DefCoordinatorURL
			if !opts.yes {
				count := strconv.Itoa(opts.participants)
				form := huh.NewForm(
					huh.NewGroup(
						huh.NewInput().
							Title("Coordinator URL").
							Value(&coordinatorURL).
							Validate(validateURL),
						huh.NewInput().
							Title("Number of participants").
							Value(&count).
							Validate(func(s string) error {
								_, err := parseCount(s)

								return err
							}),
						huh.NewInput().
							Title("Config file").
							Value(&opts.path),
					),
				)
				if err := form.Run(); err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				n, err := parseCount(count)
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				opts.participants = n
			}

			if err := validateURL(coordinatorURL); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if opts.participants <= 0 {
				logErrorCmd(*cmd, errInvalidCount)

				return
			}

			cfg := newConfig(coordinatorURL, opts.participants, opts.basePort, libNames{gen: namegenerator.NewGenerator()})
			if err := federator.SaveConfig(opts.path, cfg); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logSuccessCmd(*cmd, fmt.Sprintf("Successfully created %s", opts.path))
			logJSONCmd(*cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.path, "config", "c", opts.path, "Config file path")
	cmd.Flags().IntVarP(&opts.participants, "participants", "n", opts.participants, "Number of participants")
	cmd.Flags().IntVarP(&opts.basePort, "base-port", "p", opts.basePort, "Port of the first participant")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", opts.yes, "Skip the prompts")

	return cmd
}

func newConfig(coordinatorURL string, n, basePort int, names nameGenerator) federator.Config {
	cfg := federator.Config{
		Coordinator: federator.CoordinatorConfig{URL: coordinatorURL},
	}

	seen := make(map[string]struct{}, n)
	for i := 0; len(cfg.Participants) < n; i++ {
		id := names.Generate()
		if _, ok := seen[id]; ok {
			id = fmt.Sprintf("%s-%d", id, i)
		}
		seen[id] = struct{}{}
		cfg.Participants = append(cfg.Participants, federator.ParticipantConfig{
			ID:      id,
			Address: fmt.Sprintf("http://localhost:%d", basePort+len(cfg.Participants)),
		})
	}

	return cfg
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errInvalidCount
	}

	return n, nil
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errInvalidURL
	}

	return nil
}
