// Command tinderctl is a small command-line front end for the client library.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	client "github.com/peteraglen/tinder-go-client"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("tinderctl failed")
		stop()
		os.Exit(1)
	}
}

type app struct {
	envFile string
	output  string
	verbose bool
	session *client.Session
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:                "tinderctl",
		Short:              "Browse recommendations and matches from the command line",
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "Load environment variables from this file if it exists")
	flags.StringVarP(&a.output, "output", "o", formatJSON, "Output format: json or yaml")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose log output")

	root.AddCommand(
		a.recsCmd(),
		a.matchesCmd(),
		a.metaCmd(),
		a.profileCmd(),
		a.swipeCmd("like", "Like a user", func(ctx context.Context, id string) (any, error) {
			matched, err := a.session.Like(ctx, id)
			return map[string]bool{"match": matched}, err
		}),
		a.swipeCmd("superlike", "Superlike a user", func(ctx context.Context, id string) (any, error) {
			matched, err := a.session.Superlike(ctx, id)
			return map[string]bool{"match": matched}, err
		}),
		a.swipeCmd("pass", "Pass on a user", func(ctx context.Context, id string) (any, error) {
			return map[string]bool{"passed": true}, a.session.Dislike(ctx, id)
		}),
		a.messageCmd(),
		a.pingCmd(),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	log.SetHandler(cli.Default)
	if a.verbose {
		log.SetLevel(log.DebugLevel)
	}

	if a.output != formatJSON && a.output != formatYAML {
		return fmt.Errorf("unknown output format %q", a.output)
	}

	cfg, err := loadConfig(a.envFile)
	if err != nil {
		return err
	}

	log.Debugf("connecting to %s", cfg.BaseURL)

	a.session, err = client.NewSession(cmd.Context(), cfg.BaseURL, cfg.credentials(), cfg.options(log.Log)...)
	return err
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	if a.session == nil {
		return nil
	}
	return a.session.Close()
}

func (a *app) print(cmd *cobra.Command, v any) error {
	return printResult(cmd.OutOrStdout(), a.output, v)
}

func (a *app) recsCmd() *cobra.Command {
	var limit, maxUsers int

	cmd := &cobra.Command{
		Use:   "recs",
		Short: "List recommended users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var users []*client.User
			for user, err := range a.session.Recommendations(cmd.Context(), limit) {
				if err != nil {
					return err
				}
				users = append(users, user)
				if len(users) >= maxUsers {
					break
				}
			}
			return a.print(cmd, users)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Users fetched per batch")
	cmd.Flags().IntVar(&maxUsers, "max", 20, "Stop after this many users")

	return cmd
}

func (a *app) matchesCmd() *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "matches",
		Short: "List matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var sinceTime time.Time
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("invalid --since: %w", err)
				}
				sinceTime = t
			}

			var matches []*client.Match
			for m, err := range a.session.Matches(cmd.Context(), sinceTime) {
				if err != nil {
					return err
				}
				matches = append(matches, m)
			}
			return a.print(cmd, matches)
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Only matches active after this RFC 3339 time")

	return cmd
}

func (a *app) metaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meta",
		Short: "Show like limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			likes, err := a.session.LikesRemaining(cmd.Context())
			if err != nil {
				return err
			}

			wait, err := a.session.SecondsUntilCanLike(cmd.Context())
			if err != nil {
				return err
			}

			return a.print(cmd, map[string]any{
				"likes_remaining":        likes,
				"seconds_until_can_like": wait,
			})
		},
	}
}

func (a *app) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the account profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := a.session.Profile(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd, profile)
		},
	}
}

func (a *app) swipeCmd(use, short string, run func(context.Context, string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " USER_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd, res)
		},
	}
}

func (a *app) messageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "message MATCH_ID TEXT",
		Short: "Send a message to a match",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.session.SendMessage(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.print(cmd, map[string]string{"_id": id})
		},
	}
}

func (a *app) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping LAT LON",
		Short: "Update the account location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid latitude: %w", err)
			}

			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid longitude: %w", err)
			}

			res, err := a.session.UpdateLocation(cmd.Context(), lat, lon)
			if err != nil {
				return err
			}
			return a.print(cmd, res)
		},
	}
}
