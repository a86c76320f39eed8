package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"baby-name-game/internal/app"
	"baby-name-game/internal/auth"
	"baby-name-game/internal/backend"
	"baby-name-game/internal/form"
	"baby-name-game/internal/session"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

func newExpireCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Mark active games whose end date has passed as expired.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBackend(func(b *app.Backend) error {
				count, err := b.Service.ExpireGames(cmd.Context(), time.Now().UTC())
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "expired %d game(s)\n", count)
				return nil
			})
		},
	}
}

func newQRCmd(c *cli) *cobra.Command {
	var out string
	var size int
	cmd := &cobra.Command{
		Use:   "qr <code>",
		Short: "Write the join-link QR code of a game as a PNG file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.BaseURL == "" {
				return errors.New("base url is required (flag --base-url or env BABYGAME_BASE_URL)")
			}
			return c.withBackend(func(b *app.Backend) error {
				game, err := b.Service.GetGameByCode(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("game %s: %w", backend.NormalizeCode(args[0]), err)
				}
				path := out
				if path == "" {
					path = game.Code + ".png"
				}
				link := c.cfg.BaseURL + "/game/" + game.Code
				if err := qrcode.WriteFile(link, qrcode.Medium, size, path); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "wrote %s for %s\n", path, link)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <CODE>.png)")
	cmd.Flags().IntVar(&size, "size", 256, "image size in pixels")
	return cmd
}

func newLeaderboardCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard <code>",
		Short: "Print the ranked players of a game.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBackend(func(b *app.Backend) error {
				game, err := b.Service.GetGameByCode(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("game %s: %w", backend.NormalizeCode(args[0]), err)
				}
				entries, err := b.Service.Leaderboard(cmd.Context(), game.ID)
				if err != nil {
					return err
				}
				return printLeaderboard(c.out, game.Title, entries)
			})
		},
	}
}

func printLeaderboard(w io.Writer, title string, entries []backend.LeaderboardEntry) error {
	fmt.Fprintf(w, "%s\n", title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPLAYER\tTIME\tCLUES\tGUESSES\tWRONG")
	for _, entry := range entries {
		rank, elapsed := "-", "-"
		if entry.Rank != nil {
			rank = fmt.Sprint(*entry.Rank)
		}
		if entry.FinalTimeSeconds != nil {
			elapsed = session.FormatElapsed(time.Duration(*entry.FinalTimeSeconds) * time.Second)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n", rank, entry.PlayerName, elapsed, entry.CluesRevealed, entry.TotalGuesses, entry.IncorrectGuesses)
	}
	return tw.Flush()
}

type createOptions struct {
	parentEmail string
	cluesFile   string
	clues       []string
	form        form.GameForm
}

func newCreateCmd(c *cli) *cobra.Command {
	opts := &createOptions{}
	today := time.Now().UTC().Format(time.DateOnly)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create and activate a game for an existing parent account.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clues := opts.clues
			if opts.cluesFile != "" {
				fromFile, err := readCluesFile(opts.cluesFile)
				if err != nil {
					return err
				}
				clues = append(clues, fromFile...)
			}
			opts.form.Clues = clues
			return c.withBackend(func(b *app.Backend) error {
				game, err := createGame(cmd.Context(), b.Service, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "created %s code=%s\n", game.Title, game.Code)
				if c.cfg.BaseURL != "" {
					fmt.Fprintf(c.out, "join at %s/game/%s\n", c.cfg.BaseURL, game.Code)
				}
				return nil
			})
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.parentEmail, "parent-email", "", "email of the parent account that owns the game")
	fs.StringVar(&opts.form.GameTitle, "title", "", "game title")
	fs.StringVar(&opts.form.GameDescription, "description", "", "game description")
	fs.StringVar(&opts.form.BabyFirstName, "first", "", "baby's first name (the answer)")
	fs.StringVar(&opts.form.BabyMiddleName, "middle", "", "baby's middle name")
	fs.StringVar(&opts.form.BabyLastName, "last", "", "baby's last name")
	fs.StringVar(&opts.form.StartDate, "start", today, "first day of play (YYYY-MM-DD)")
	fs.StringVar(&opts.form.EndDate, "end", today, "last day of play (YYYY-MM-DD)")
	fs.StringArrayVar(&opts.clues, "clue", nil, "clue text, repeatable")
	fs.StringVar(&opts.cluesFile, "clues-file", "", "csv file with one clue per row")
	_ = cmd.MarkFlagRequired("parent-email")
	return cmd
}

func createGame(ctx context.Context, svc backend.Service, opts *createOptions) (*backend.Game, error) {
	opts.form.MarkAllTouched()
	if errs := opts.form.Validate(); !errs.Empty() {
		return nil, formError(errs)
	}
	account, err := svc.FindAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(opts.parentEmail)))
	if err != nil {
		return nil, fmt.Errorf("parent %s: %w", opts.parentEmail, err)
	}
	parent, err := auth.New(svc, "").CurrentParent(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	input, err := opts.form.ToInput(parent.ID)
	if err != nil {
		return nil, err
	}
	game, err := svc.CreateGame(ctx, input)
	if err != nil {
		return nil, err
	}
	return svc.UpdateGameStatus(ctx, game.ID, backend.StatusActive)
}

func formError(errs form.Errors) error {
	fields := make([]string, 0, len(errs.Fields))
	for field := range errs.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	var list []error
	for _, field := range fields {
		list = append(list, fmt.Errorf("%s: %s", field, errs.Fields[field]))
	}
	for i, msg := range errs.Clues {
		if msg != "" {
			list = append(list, fmt.Errorf("clue %d: %s", i+1, msg))
		}
	}
	return errors.Join(list...)
}

// readCluesFile reads the first column of every non-empty row.
func readCluesFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	clues := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		clues = append(clues, strings.TrimSpace(row[0]))
	}
	return clues, nil
}
