package main

import (
	"alcyxob/therapy-app/internal/client"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	v *viper.Viper
}

func (o *options) server() string    { return o.v.GetString("server") }
func (o *options) tokenFile() string { return o.v.GetString("token-file") }

// client returns an API client carrying the stored token.
func (o *options) client() (*client.Client, error) {
	c := client.New(o.server(), nil)
	token := o.v.GetString("token")
	if token == "" {
		raw, err := os.ReadFile(o.tokenFile())
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, errors.New("not logged in: run `patientcli login` first")
			}
			return nil, fmt.Errorf("read token: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	c.SetToken(token)
	return c, nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".therapy-token"
	}
	return filepath.Join(dir, "therapy-app", "token")
}

func newRootCmd() *cobra.Command {
	opts := &options{v: viper.New()}

	root := &cobra.Command{
		Use:           "patientcli",
		Short:         "Run your assigned therapy series from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("server", "http://localhost:8080", "API base URL")
	root.PersistentFlags().String("token", "", "JWT to use instead of the stored one")
	root.PersistentFlags().String("token-file", defaultTokenFile(), "where login stores the token")
	_ = opts.v.BindPFlags(root.PersistentFlags())
	opts.v.SetEnvPrefix("THERAPY")
	opts.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	opts.v.AutomaticEnv()

	root.AddCommand(newLoginCmd(opts))
	root.AddCommand(newProgressCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newRunCmd(opts))
	return root
}

func newLoginCmd(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), client.DefaultTimeout)
			defer cancel()

			c := client.New(opts.server(), nil)
			resp, err := c.Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(opts.tokenFile()), 0o700); err != nil {
				return fmt.Errorf("create token dir: %w", err)
			}
			if err := os.WriteFile(opts.tokenFile(), []byte(resp.Token), 0o600); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Hola %s, sesión iniciada.\n", resp.User.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newProgressCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show the assigned series and completed sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), client.DefaultTimeout)
			defer cancel()
			profile, err := c.Profile(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if profile.AssignedSeries == nil {
				_, _ = fmt.Fprintln(out, "No tienes una serie asignada.")
				return nil
			}
			a := profile.AssignedSeries
			_, _ = fmt.Fprintf(out, "%s: %d/%d sesiones (asignada %s)\n",
				a.SeriesName, a.CompletedSessionCount, a.RecommendedSessionCount, a.AssignedAt.Format(time.DateOnly))
			return nil
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recorded sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), client.DefaultTimeout)
			defer cancel()
			entries, err := c.History(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(out, "Aún no hay sesiones registradas.")
			}
			for _, e := range entries {
				_, _ = fmt.Fprintf(out, "%s  dolor %d -> %d  %s\n",
					e.OccurredAt.Local().Format(time.DateTime), e.PainBefore, e.PainAfter, e.Comment)
			}
			return nil
		},
	}
}
