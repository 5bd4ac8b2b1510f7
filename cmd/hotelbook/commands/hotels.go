package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hotelbook/cmd/hotelbook/output"
	"hotelbook/internal/app"
	"hotelbook/internal/domain"
)

func hotelCommands(s *session) []*cobra.Command {
	return []*cobra.Command{
		newCreateHotelCmd(s),
		newUpdateHotelCmd(s),
		newDeleteHotelCmd(s),
		newListHotelsCmd(s),
		newShowHotelCmd(s),
		newSearchHotelsCmd(s),
		newHotelGuestsCmd(s),
	}
}

func newCreateHotelCmd(s *session) *cobra.Command {
	var name, location string
	cmd := &cobra.Command{
		Use:   "create-hotel",
		Short: "Add a hotel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				h, err := d.CreateHotel(ctx, name, location)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), h, func(w io.Writer) {
					output.Success(w, "Created %s", h)
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Hotel name (required)")
	cmd.Flags().StringVar(&location, "location", "", "Hotel location (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}

func newUpdateHotelCmd(s *session) *cobra.Command {
	var (
		id             int64
		name, location string
	)
	cmd := &cobra.Command{
		Use:   "update-hotel",
		Short: "Change a hotel's name and location",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				h, err := d.UpdateHotel(ctx, id, name, location)
				if err != nil {
					return fmt.Errorf("update hotel %d: %w", id, err)
				}
				return s.emit(cmd.OutOrStdout(), h, func(w io.Writer) {
					output.Success(w, "Updated %s", h)
				})
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Hotel id (required)")
	cmd.Flags().StringVar(&name, "name", "", "New name (required)")
	cmd.Flags().StringVar(&location, "location", "", "New location (required)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}

func newDeleteHotelCmd(s *session) *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "delete-hotel",
		Short: "Remove a hotel that has no guests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				h, err := d.DeleteHotel(ctx, id)
				if err != nil {
					return fmt.Errorf("delete hotel %d: %w", id, err)
				}
				return s.emit(cmd.OutOrStdout(), map[string]int64{"deleted": id}, func(w io.Writer) {
					output.Success(w, "Deleted hotel %d (%s)", id, h.Name)
				})
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Hotel id (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newListHotelsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list-hotels",
		Short: "List every hotel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				hs, err := d.Hotels(ctx)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), nonNil(hs), func(w io.Writer) {
					output.Records(w, "Hotels", hs)
				})
			})
		},
	}
}

func newShowHotelCmd(s *session) *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "show-hotel",
		Short: "Show one hotel by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				h, err := d.Hotel(ctx, id)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), h, func(w io.Writer) {
					if h == nil {
						output.Warning(w, "No hotel found with id %d", id)
						return
					}
					fmt.Fprintln(w, h)
				})
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Hotel id (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newSearchHotelsCmd(s *session) *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "search-hotels",
		Short: "Find hotels whose name matches a regular expression",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				hs, err := d.SearchHotels(ctx, pattern)
				if err != nil {
					return err
				}
				return s.emit(cmd.OutOrStdout(), nonNil(hs), func(w io.Writer) {
					output.Records(w, fmt.Sprintf("Hotels matching %q", pattern), hs)
				})
			})
		},
	}
	cmd.Flags().StringVar(&pattern, "name", "", "Name pattern (required)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newHotelGuestsCmd(s *session) *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "hotel-guests",
		Short: "List the guests of one hotel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withDirectory(cmd, func(ctx context.Context, d *app.Directory) error {
				h, gs, err := d.HotelGuests(ctx, id)
				if err != nil {
					return err
				}
				var v any
				if h != nil {
					v = struct {
						Hotel  *domain.Hotel   `json:"hotel"`
						Guests []*domain.Guest `json:"guests"`
					}{h, nonNil(gs)}
				}
				return s.emit(cmd.OutOrStdout(), v, func(w io.Writer) {
					if h == nil {
						output.Warning(w, "No hotel found with id %d", id)
						return
					}
					output.Records(w, "Guests of "+h.String(), gs)
				})
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Hotel id (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
