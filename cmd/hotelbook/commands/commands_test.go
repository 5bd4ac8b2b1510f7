package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hotelbook/cmd/hotelbook/commands"
	"hotelbook/internal/domain"
	"hotelbook/internal/search"
	"hotelbook/internal/shared"
)

type cli struct {
	t   *testing.T
	cfg shared.Config
}

func newCLI(t *testing.T) *cli {
	return &cli{t: t, cfg: shared.Config{
		DBDriver: "sqlite",
		DBDSN:    filepath.Join(t.TempDir(), "hotels.db"),
		CacheTTL: time.Minute,
	}}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	cmd := commands.NewRootCmd(c.cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) jsonInto(dst any, args ...string) {
	c.t.Helper()
	out, err := c.run(append([]string{"--json"}, args...)...)
	require.NoError(c.t, err, out)
	require.NoError(c.t, json.Unmarshal([]byte(out), dst), out)
}

func TestHotelCommands(t *testing.T) {
	c := newCLI(t)

	var h domain.Hotel
	c.jsonInto(&h, "create-hotel", "--name", "Sonder", "--location", "828 Brittle Road")
	require.NotZero(t, h.ID)
	id := strconv.FormatInt(h.ID, 10)

	out, err := c.run("show-hotel", "--id", id)
	require.NoError(t, err)
	require.Contains(t, out, "<Hotel "+id+": Sonder @828 Brittle Road>")

	out, err = c.run("update-hotel", "--id", id, "--name", "Sonder", "--location", "829 Brittle Road")
	require.NoError(t, err)
	require.Contains(t, out, "829 Brittle Road")

	var all []domain.Hotel
	c.jsonInto(&all, "list-hotels")
	require.Len(t, all, 1)
	require.Equal(t, "829 Brittle Road", all[0].Location)

	out, err = c.run("delete-hotel", "--id", id)
	require.NoError(t, err)
	require.Contains(t, out, "Deleted hotel "+id)

	_, err = c.run("delete-hotel", "--id", id)
	require.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

	out, err = c.run("show-hotel", "--id", id)
	require.NoError(t, err)
	require.Contains(t, out, "No hotel found")

	out, err = c.run("--json", "show-hotel", "--id", id)
	require.NoError(t, err)
	require.JSONEq(t, "null", out)
}

func TestGuestCommands(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("create-guest", "--name", "Raha", "--hotel-id", "1")
	require.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)

	var h domain.Hotel
	c.jsonInto(&h, "create-hotel", "--name", "The Churchill", "--location", "Winston Churchill Land")
	hid := strconv.FormatInt(h.ID, 10)

	var raha, tal domain.Guest
	c.jsonInto(&raha, "create-guest", "--name", "Raha", "--hotel-id", hid)
	c.jsonInto(&tal, "create-guest", "--name", "Tal", "--hotel-id", hid)
	require.Equal(t, h.ID, raha.HotelID)

	out, err := c.run("hotel-guests", "--id", hid)
	require.NoError(t, err)
	require.Contains(t, out, "Raha")
	require.Contains(t, out, "Tal")

	var short []domain.Guest
	c.jsonInto(&short, "guests-by-name-length", "--length", "3")
	require.Len(t, short, 1)
	require.Equal(t, "Tal", short[0].Name)

	var found []domain.Guest
	c.jsonInto(&found, "search-guests", "--name", "^Ra")
	require.Len(t, found, 1)
	require.Equal(t, raha.ID, found[0].ID)

	_, err = c.run("search-guests", "--name", "[a-")
	var pe *search.PatternError
	require.True(t, errors.As(err, &pe), "got %v", err)

	var moved domain.Guest
	c.jsonInto(&moved, "update-guest", "--id", strconv.FormatInt(raha.ID, 10), "--name", "Raha K", "--hotel-id", hid)
	require.Equal(t, "Raha K", moved.Name)

	_, err = c.run("delete-hotel", "--id", hid)
	require.Error(t, err, "a hotel with guests cannot be deleted")

	out, err = c.run("delete-guest", "--id", strconv.FormatInt(tal.ID, 10))
	require.NoError(t, err)
	require.Contains(t, out, "Deleted guest")

	var rest []domain.Guest
	c.jsonInto(&rest, "list-guests")
	require.Len(t, rest, 1)

	out, err = c.run("show-guest", "--id", "999")
	require.NoError(t, err)
	require.Contains(t, out, "No guest found")
}

func TestResetSeed(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("create-hotel", "--name", "Leftover", "--location", "Nowhere")
	require.NoError(t, err)

	out, err := c.run("reset", "--seed")
	require.NoError(t, err)
	require.Contains(t, out, "Database reset")

	var hs []domain.Hotel
	c.jsonInto(&hs, "list-hotels")
	require.Len(t, hs, 2)
	require.Equal(t, "The Lafayette", hs[0].Name)

	var gs []domain.Guest
	c.jsonInto(&gs, "list-guests")
	require.Len(t, gs, 2)
	require.Equal(t, "Lee", gs[0].Name)
	require.Equal(t, "Sasha", gs[1].Name)
}

func TestRequiredFlags(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("create-hotel", "--name", "Sonder")
	require.Error(t, err)

	_, err = c.run("--driver", "oracle", "list-hotels")
	require.Error(t, err)
}
