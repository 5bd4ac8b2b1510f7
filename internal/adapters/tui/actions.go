package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"hotelbook/internal/app"
	"hotelbook/internal/domain"
	"hotelbook/internal/search"
)

type fieldKind int

const (
	textField fieldKind = iota
	idField
	countField
)

// field is one prompt of an action. key matches the field names carried by
// domain.ValidationError so a rejected value can be asked for again.
type field struct {
	key   string
	label string
	kind  fieldKind
}

func (f field) check(v string) error {
	switch f.kind {
	case idField:
		if n, err := strconv.ParseInt(v, 10, 64); err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive whole number", strings.ToLower(f.label))
		}
	case countField:
		if n, err := strconv.Atoi(v); err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative whole number", strings.ToLower(f.label))
		}
	}
	return nil
}

type values map[string]string

func (v values) id(k string) int64 {
	n, _ := strconv.ParseInt(v[k], 10, 64)
	return n
}

func (v values) count(k string) int {
	n, _ := strconv.Atoi(v[k])
	return n
}

type action struct {
	title  string
	desc   string
	fields []field
	run    func(ctx context.Context, d *app.Directory, v values) (string, error)
	quit   bool
}

var (
	idF      = field{key: "id", label: "Id", kind: idField}
	nameF    = field{key: "name", label: "Name"}
	locF     = field{key: "location", label: "Location"}
	hotelIDF = field{key: "hotel_id", label: "Hotel id", kind: idField}
	queryF   = field{key: "query", label: "Name pattern"}
)

func actions() []action {
	return []action{
		{
			title: "List hotels", desc: "Show every hotel",
			run: func(ctx context.Context, d *app.Directory, _ values) (string, error) {
				hs, err := d.Hotels(ctx)
				return records("Hotels", hs), err
			},
		},
		{
			title: "Show hotel", desc: "Look a hotel up by id",
			fields: []field{idF},
			run: func(ctx context.Context, d *app.Directory, v values) (string, error) {
				h, err := d.Hotel(ctx, v.id("id"))
				if err != nil || h == nil {
					return fmt.Sprintf("No hotel found with id %s", v["id"]), err
				}
				return h.String(), nil
			},
		},
		{
			title: "Search hotels", desc: "Find hotels whose name matches a pattern",
			fields: []field{queryF},
			run: func(ctx context.Context, d *app.Directory, v values) (string, error) {
				hs, err := d.SearchHotels(ctx, v["query"])
				return records(fmt.Sprintf("Hotels matching %q", v["query"]), hs), err
			},
		},
		{
			title: "Create hotel", desc: "Add a hotel",
			fields: []field{nameF, locF},
			run: func(ctx context.Context, d *app.Directory, v values) (string, error) {
				h, err := d.CreateHotel(ctx, v["name"], v["location"])
				if err != nil {
					return "", err
				}
				return "Created " + h.String(), nil
			},
		},
		{
			title: "Update hotel", desc: "Change a hotel's name and location",
			fields: []field{idF, nameF, locF},
			run: func(ctx context.Context, d *app.Directory, v values) (string, error) {
				h, err := d.UpdateHotel(ctx, v.id("id"), v["name"], v["location"])
				if err != nil {
					return "", err
				}
				return "Updated " + h.String(), nil
			},
		},
		{
			title: "Delete hotel", desc: "Remove a hotel without guests",
			fields: []field{idF},
			run: func(ctx context.Context, d *app.Directory, v values) (string, error) {
				if _, err := d.DeleteHotel(ctx, v.id("id")); err != nil {
					return "", err
				}
				return fmt.Sprintf("Deleted hotel %s", v["id"]), nil
			},
		},
		{
			title: "Hotel guests", desc: "List the guests staying at a hotel",
			fields: []field{idF},
			run: func(ctx context.Context, d *app.Directory, v values) (string, error) {
				h, gs, err := d.HotelGuests(ctx, v.id("id"))
				if err != nil || h == nil {
					return fmt.Sprintf("No hotel found with id %s", v["id"]), err
				}
				return records("Guests of "+h.Name, gs), nil
			},
		},
		{
			title: "List guests", desc: "Show every guest",
			run: func(ctx context.Context, d *app.Directory, _ values) (string, error) {
				gs, err := d.Guests(ctx)
				return records("Guests", gs), err
			},
		},
		{
			title: "Show guest", desc: "Look a guest up by id",
			fields: []field{idF},
			run: func(ctx context.Context, d *app.Directory, v values) (string, error) {
				g, err := d.Guest(ctx, v.id("id"))
				if err != nil || g == nil {
					return fmt.Sprintf("No guest found with id %s", v["id"]), err
				}
				return g.String(), nil
			},
		},
		{
			title: "Search guests", desc: "Find guests whose name matches a pattern",
			fields: []field{queryF},
			run: func(ctx context.Context, d *app.Directory, v values) (string, error) {
				gs, err := d.SearchGuests(ctx, v["query"])
				return records(fmt.Sprintf("Guests matching %q", v["query"]), gs), err
			},
		},
		{
			title: "Create guest", desc: "Add a guest to a hotel",
			fields: []field{nameF, hotelIDF},
			run: func(ctx context.Context, d *app.Directory, v values) (string, error) {
				g, err := d.CreateGuest(ctx, v["name"], v.id("hotel_id"))
				if err != nil {
					return "", err
				}
				return "Created " + g.String(), nil
			},
		},
		{
			title: "Update guest", desc: "Rename a guest or move them to another hotel",
			fields: []field{idF, nameF, hotelIDF},
			run: func(ctx context.Context, d *app.Directory, v values) (string, error) {
				g, err := d.UpdateGuest(ctx, v.id("id"), v["name"], v.id("hotel_id"))
				if err != nil {
					return "", err
				}
				return "Updated " + g.String(), nil
			},
		},
		{
			title: "Delete guest", desc: "Remove a guest",
			fields: []field{idF},
			run: func(ctx context.Context, d *app.Directory, v values) (string, error) {
				if _, err := d.DeleteGuest(ctx, v.id("id")); err != nil {
					return "", err
				}
				return fmt.Sprintf("Deleted guest %s", v["id"]), nil
			},
		},
		{
			title: "Guests by name length", desc: "Guests whose name is at most N characters",
			fields: []field{{key: "length", label: "Max length", kind: countField}},
			run: func(ctx context.Context, d *app.Directory, v values) (string, error) {
				gs, err := d.GuestsByNameLength(ctx, v.count("length"))
				return records(fmt.Sprintf("Guests with names up to %d characters", v.count("length")), gs), err
			},
		},
		{title: "Exit", desc: "Leave the menu", quit: true},
	}
}

// retryField names the prompt to ask again after err, if any.
func retryField(err error) (string, bool) {
	var ve *domain.ValidationError
	var pe *search.PatternError
	switch {
	case errors.As(err, &ve):
		return ve.Field, true
	case errors.Is(err, domain.ErrNotFound):
		return "id", true
	case errors.Is(err, search.ErrEmptyPattern), errors.As(err, &pe):
		return "query", true
	}
	return "", false
}

func records[T fmt.Stringer](title string, recs []T) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", title, len(recs))))
	b.WriteString("\n")
	if len(recs) == 0 {
		b.WriteString(mutedStyle.Render("none"))
	}
	for i, r := range recs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.String())
	}
	return b.String()
}
