package main

import (
	"fmt"
	"io"
	"strings"

	"baby-name-game/internal/app"
	"baby-name-game/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type cli struct {
	cfg  config.Config
	open func(config.Config) (*app.Backend, error)
	out  io.Writer
}

func newCmd(c *cli) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("BABYGAME")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "gamectl",
		Short:         "Operator tooling for the baby name guessing game.",
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.DatabaseDriver == config.DriverPostgres && c.cfg.DatabaseURL == "" {
				return fmt.Errorf("database url is required (flag --database-url or env BABYGAME_DATABASE_URL)")
			}
			return nil
		},
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVar(&c.cfg.DatabaseURL, "database-url", c.cfg.DatabaseURL, "postgres connection string (env: BABYGAME_DATABASE_URL)")
	fs.StringVar(&c.cfg.DatabaseDriver, "driver", c.cfg.DatabaseDriver, "storage driver, postgres or memory (env: BABYGAME_DRIVER)")
	fs.StringVar(&c.cfg.BaseURL, "base-url", c.cfg.BaseURL, "public base URL used in join links (env: BABYGAME_BASE_URL)")
	fs.BoolVar(&c.cfg.AutoMigrate, "migrate", c.cfg.AutoMigrate, "apply pending migrations before running (env: BABYGAME_MIGRATE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
	// The CLI only runs one-shot commands, so changes never need the LISTEN bridge.
	c.cfg.RealtimeListen = false

	cmd.AddCommand(
		newExpireCmd(c),
		newQRCmd(c),
		newLeaderboardCmd(c),
		newCreateCmd(c),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("gamectl v{{.Version}}\n")
	return cmd
}

func (c *cli) withBackend(fn func(b *app.Backend) error) error {
	b, err := c.open(c.cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}
