package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hotelbook/cmd/hotelbook/output"
	"hotelbook/internal/app"
)

func guestCommands(s *session) []*cobra.Command {
	return []*cobra.Command{
		newCreateGuestCmd(s),
		newUpdateGuestCmd(s),
		newDeleteGuestCmd(s),
		newListGuestsCmd(s),
		newShowGuestCmd(s),
		newSearchGuestsCmd(s),
		newGuestsByNameLengthCmd(s),
	}
}

func newCreateGuestCmd(s *session) *cobra.Command {
	var (
		name    string
		hotelID int64
	)
	cmd := &cobra.Command{
		Use:   "create-guest",
		Short: "Add a guest to an existing hotel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				g, err := d.CreateGuest(ctx, name, hotelID)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), g, func(w io.Writer) {
					output.Success(w, "Created %s", g)
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Guest name (required)")
	cmd.Flags().Int64Var(&hotelID, "hotel-id", 0, "Id of the hotel the guest stays at (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("hotel-id")
	return cmd
}

func newUpdateGuestCmd(s *session) *cobra.Command {
	var (
		id, hotelID int64
		name        string
	)
	cmd := &cobra.Command{
		Use:   "update-guest",
		Short: "Rename a guest or move them to another hotel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				g, err := d.UpdateGuest(ctx, id, name, hotelID)
				if err != nil {
					return fmt.Errorf("update guest %d: %w", id, err)
				}
				return s.emit(cmd.OutOrStdout(), g, func(w io.Writer) {
					output.Success(w, "Updated %s", g)
				})
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Guest id (required)")
	cmd.Flags().StringVar(&name, "name", "", "New name (required)")
	cmd.Flags().Int64Var(&hotelID, "hotel-id", 0, "New hotel id (required)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("hotel-id")
	return cmd
}

func newDeleteGuestCmd(s *session) *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "delete-guest",
		Short: "Remove a guest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				g, err := d.DeleteGuest(ctx, id)
				if err != nil {
					return fmt.Errorf("delete guest %d: %w", id, err)
				}
				return s.emit(cmd.OutOrStdout(), map[string]int64{"deleted": id}, func(w io.Writer) {
					output.Success(w, "Deleted guest %d (%s)", id, g.Name)
				})
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Guest id (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newListGuestsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list-guests",
		Short: "List every guest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				gs, err := d.Guests(ctx)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), nonNil(gs), func(w io.Writer) {
					output.Records(w, "Guests", gs)
				})
			})
		},
	}
}

func newShowGuestCmd(s *session) *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "show-guest",
		Short: "Show one guest by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				g, err := d.Guest(ctx, id)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), g, func(w io.Writer) {
					if g == nil {
						output.Warning(w, "No guest found with id %d", id)
						return
					}
					fmt.Fprintln(w, g)
				})
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Guest id (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newSearchGuestsCmd(s *session) *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "search-guests",
		Short: "Find guests whose name matches a regular expression",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				gs, err := d.SearchGuests(ctx, pattern)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), nonNil(gs), func(w io.Writer) {
					output.Records(w, fmt.Sprintf("Guests matching %q", pattern), gs)
				})
			})
		},
	}
	cmd.Flags().StringVar(&pattern, "name", "", "Name pattern (required)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newGuestsByNameLengthCmd(s *session) *cobra.Command {
	var length int
	cmd := &cobra.Command{
		Use:   "guests-by-name-length",
		Short: "List guests whose name has at most --length characters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if length < 0 {
				return fmt.Errorf("--length must not be negative")
			}
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				gs, err := d.GuestsByNameLength(ctx, length)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), nonNil(gs), func(w io.Writer) {
					output.Records(w, fmt.Sprintf("Guests with names up to %d characters", length), gs)
				})
			})
		},
	}
	cmd.Flags().IntVar(&length, "length", 0, "Maximum name length (required)")
	_ = cmd.MarkFlagRequired("length")
	return cmd
}
