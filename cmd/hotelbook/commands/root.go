package commands

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hotelbook/cmd/hotelbook/output"
	redisad "hotelbook/internal/adapters/redis"
	"hotelbook/internal/adapters/tui"
	"hotelbook/internal/app"
	"hotelbook/internal/domain"
	"hotelbook/internal/shared"
	"hotelbook/internal/storage/sqlstore"
)

// session carries the global flags and opens the directory for one command.
type session struct {
	cfg        shared.Config
	driver     string
	dsn        string
	jsonOutput bool
}

// NewRootCmd builds the hotelbook command tree from cfg.
func NewRootCmd(cfg shared.Config) *cobra.Command {
	s := &session{cfg: cfg}

	root := &cobra.Command{
		Use:   "hotelbook",
		Short: "Manage hotels and their guests",
		Long: `hotelbook keeps a small database of hotels and the guests staying at them.

Run without a subcommand to open the interactive menu, or use the subcommands
directly for scripting. Every hotel a guest references must exist first.

Examples:
  hotelbook create-hotel --name "Sonder" --location "828 Brittle Road"
  hotelbook create-guest --hotel-id 1 --name "Raha"
  hotelbook search-hotels --name "^Son"
  hotelbook --driver mysql --dsn "root:root@tcp(localhost:3306)/hotels" list-guests`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				return tui.Run(ctx, d, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}

	root.PersistentFlags().StringVar(&s.driver, "driver", cfg.DBDriver, "Database driver: sqlite, mysql or postgres")
	root.PersistentFlags().StringVar(&s.dsn, "dsn", cfg.DBDSN, "Database connection string (a file path for sqlite)")
	root.PersistentFlags().BoolVar(&s.jsonOutput, "json", false, "Output in JSON format")

	root.AddCommand(
		newMenuCmd(s),
		newResetCmd(s),
		newServeCmd(s),
	)
	root.AddCommand(hotelCommands(s)...)
	root.AddCommand(guestCommands(s)...)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute(ctx context.Context, cfg shared.Config) {
	if err := NewRootCmd(cfg).ExecuteContext(ctx); err != nil {
		output.Error(os.Stderr, "%v", err)
		os.Exit(1)
	}
}

func newMenuCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Open the interactive menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				return tui.Run(ctx, d, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}

func newResetCmd(s *session) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate the hotels and guests tables",
		Long: `Drop both tables and create them again, empty.

With --seed the tables are loaded with two demo hotels and one guest each.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				if err := d.Reset(ctx, seed); err != nil {
					return err
				}
				if s.jsonOutput {
					return output.JSON(cmd.OutOrStdout(), map[string]bool{"reset": true, "seeded": seed})
				}
				output.Success(cmd.OutOrStdout(), "Database reset")
				if seed {
					output.Info(cmd.OutOrStdout(), "Loaded demo hotels and guests")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "Load demo hotels and guests after the reset")
	return cmd
}

// withDirectory opens storage (and the redis search cache when configured),
// ensures the schema and runs fn. Everything is closed when fn returns.
func (s *session) withDirectory(cmd *cobra.Command, fn func(context.Context, *app.Directory) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := sqlstore.Open(ctx, s.driver, s.dsn)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var cache domain.Cache
	if s.cfg.RedisAddr != "" {
		rc := redisad.New(s.cfg.RedisAddr, s.cfg.RedisPass, s.cfg.RedisDB)
		defer func() { _ = rc.Close() }()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", s.cfg.RedisAddr).Msg("redis unavailable, search cache disabled")
		} else {
			cache = rc
		}
	}

	d := app.NewDirectory(store.Hotels, store.Guests, cache, s.cfg.CacheTTL)
	if err := d.EnsureSchema(ctx); err != nil {
		return err
	}
	return fn(ctx, d)
}

// emit writes v as JSON in --json mode, otherwise runs human.
func (s *session) emit(w io.Writer, v any, human func(io.Writer)) error {
	if s.jsonOutput {
		return output.JSON(w, v)
	}
	human(w)
	return nil
}
