package console

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"foodshare/internal/domain"
	"foodshare/internal/listing"
	"foodshare/internal/session"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	c    *Console
	out  *bytes.Buffer
	path string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := func() time.Time { return t0 }
	n := 0
	ids := func() string { n++; return "n" + string(rune('0'+n)) }

	store := listing.NewStore(listing.NewMemoryRepository(), nil, listing.WithClock(now), listing.WithIDGen(ids))
	_, err := store.SeedIfEmpty(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "session.json")
	out := &bytes.Buffer{}
	return &fixture{
		c: &Console{
			Out:      out,
			Session:  session.NewStore(session.MockProvider{Now: now}, session.NewFilePersister(path), nil),
			Listings: store,
		},
		out:  out,
		path: path,
	}
}

func (f *fixture) run(t *testing.T, args ...string) error {
	t.Helper()
	f.out.Reset()
	cmd := NewCommand(f.c)
	cmd.SetArgs(args)
	cmd.SetOut(f.out)
	cmd.SetErr(f.out)
	return cmd.ExecuteContext(context.Background())
}

func TestExecute_ExitCodeAndErrorLog(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	errOut := &bytes.Buffer{}
	cmd := NewCommand(f.c)
	cmd.SetArgs([]string{"views"})
	cmd.SetOut(f.out)
	assert.Equal(t, 0, Execute(context.Background(), cmd, log, errOut))
	assert.Empty(t, errOut.String())
	assert.Zero(t, logs.Len())

	cmd = NewCommand(f.c)
	cmd.SetArgs([]string{"browse"})
	cmd.SetOut(f.out)
	cmd.SetErr(f.out)
	assert.Equal(t, 1, Execute(context.Background(), cmd, log, errOut))
	assert.Contains(t, errOut.String(), "please log in first")

	entries := logs.FilterMessage("command failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
}

func TestGating(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, "browse")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Contains(t, err.Error(), "redirect /login")
	assert.Equal(t, "please log in first", Describe(err))

	require.NoError(t, f.run(t, "login", "-e", "dee@donor.org", "-p", "x"))
	err = f.run(t, "browse")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Contains(t, err.Error(), "redirect /")

	require.NoError(t, f.run(t, "views"))
	assert.Equal(t, "home\nabout\nlogin\nregister\ndonate\nmy-donations\n", f.out.String())
}

func TestLogin_EmailRequired(t *testing.T) {
	f := newFixture(t)
	err := f.run(t, "login", "-e", " ")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, ok := f.c.Session.Current()
	assert.False(t, ok)
}

func TestViewsCheck(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "views", "--check", "about"))
	assert.Equal(t, "about: public\n  allowed\n", f.out.String())

	require.NoError(t, f.run(t, "views", "--check", "claim"))
	assert.Equal(t, "claim: recipient\n  denied (redirect /login)\n", f.out.String())

	require.NoError(t, f.run(t, "login", "-e", "vic@volunteer.org"))
	require.NoError(t, f.run(t, "views", "--check", "deliveries"))
	assert.Equal(t, "deliveries: volunteer\n  allowed\n", f.out.String())

	err := f.run(t, "views", "--check", "settings")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExpiringSoonMarks(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run(t, "login", "-e", "ray@recipient.org"))

	require.NoError(t, f.run(t, "browse"))
	assert.Equal(t, 2, strings.Count(f.out.String(), "(expiring soon)"))

	require.NoError(t, f.run(t, "show", "1"))
	assert.Contains(t, f.out.String(), "(expiring soon)")
	require.NoError(t, f.run(t, "show", "2"))
	assert.NotContains(t, f.out.String(), "(expiring soon)")

	cmd := NewCommand(f.c)
	browse, _, err := cmd.Find([]string{"browse"})
	require.NoError(t, err)
	assert.Contains(t, browse.Flag("type").Usage, "cooked_meal")
}

func TestDonateClaimDeliverFlow(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "login", "-e", "dee@donor.org", "-p", "x"))
	require.NoError(t, f.run(t, "donate",
		"--name", "Soup", "--desc", "Lentil soup", "--qty", "4", "--unit", "litres",
		"--expires", "48h", "-t", "cooked_meal",
		"--pickup-street", "1 Elm St", "--pickup-city", "Anytown"))
	assert.Contains(t, f.out.String(), "listed n1 (Soup)")

	require.NoError(t, f.run(t, "donations"))
	assert.Contains(t, f.out.String(), "Soup")
	assert.NotContains(t, f.out.String(), "Pasta")

	require.NoError(t, f.run(t, "logout"))
	require.NoError(t, f.run(t, "login", "-e", "ray@recipient.org", "-p", "x"))

	require.NoError(t, f.run(t, "browse", "--sort", "name"))
	lines := strings.Split(strings.TrimSpace(f.out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[1], "Bakery Items")
	assert.Contains(t, lines[4], "Soup")

	require.NoError(t, f.run(t, "claim", "n1", "--deliver-street", "9 Pine", "--deliver-city", "Anytown"))
	err := f.run(t, "claim", "n1")
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, f.run(t, "claims"))
	assert.Contains(t, f.out.String(), "claimed")

	require.NoError(t, f.run(t, "login", "-e", "vic@volunteer.org", "-p", "x"))
	require.NoError(t, f.run(t, "deliveries"))
	assert.Contains(t, f.out.String(), "n1")

	require.NoError(t, f.run(t, "accept", "n1"))
	assert.Contains(t, f.out.String(), "deliver to 9 Pine")
	require.NoError(t, f.run(t, "complete", "n1"))

	got, err := f.c.Listings.FindByID(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, got.Status)
}

func TestDonate_Validation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run(t, "login", "-e", "dee@donor.org"))

	err := f.run(t, "donate", "--name", "Bread", "--qty", "2", "--unit", "loaves")
	assert.ErrorIs(t, err, domain.ErrValidation, "pickup address is required")

	err = f.run(t, "donate", "--name", "Bread", "--qty", "2", "--unit", "loaves",
		"--donation", "discounted", "--pickup-street", "1 Elm", "--pickup-city", "Anytown")
	assert.ErrorIs(t, err, domain.ErrValidation, "discounted needs a price")

	err = f.run(t, "donate", "--name", "Bread", "--expires", "soon")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestWithdraw_OwnOnly(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run(t, "login", "-e", "dee@donor.org"))

	err := f.run(t, "withdraw", "1")
	assert.ErrorIs(t, err, domain.ErrForbidden, "seed listing 1 belongs to donor 1")

	err = f.run(t, "withdraw", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegister_ConfirmationMismatch(t *testing.T) {
	f := newFixture(t)
	err := f.run(t, "register", "--name", "Ray", "-e", "ray@x.org", "-p", "abc", "--confirm", "abd", "-r", "recipient")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, ok := f.c.Session.Current()
	assert.False(t, ok)

	require.NoError(t, f.run(t, "register", "--name", "Ray", "-e", "ray@x.org", "-p", "abc", "--confirm", "abc", "-r", "recipient"))
	require.NoError(t, f.run(t, "whoami"))
	assert.Contains(t, f.out.String(), "role: recipient")
	assert.FileExists(t, f.path)
}

func TestShell(t *testing.T) {
	f := newFixture(t)
	f.out.Reset()
	cmd := NewCommand(f.c)
	cmd.SetArgs([]string{"shell"})
	cmd.SetIn(strings.NewReader("browse\nlogin -e ray@recipient.org\nshow 2\nclaim \"2\"\nclaim 2\nexit\nwhoami\n"))
	cmd.SetOut(f.out)
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	out := f.out.String()
	assert.Contains(t, out, "error: please log in first")
	assert.Contains(t, out, "Fresh Vegetables Assortment")
	assert.Contains(t, out, "claimed 2")
	assert.Contains(t, out, "error: conflict: listing is claimed")
	assert.NotContains(t, out, "role:", "exit stops the loop")
}

func TestSplit(t *testing.T) {
	args, err := Split(`donate --name "Fresh bread" --desc 'day old'  --qty 3`)
	require.NoError(t, err)
	assert.Equal(t, []string{"donate", "--name", "Fresh bread", "--desc", "day old", "--qty", "3"}, args)

	args, err = Split(`claim ""`)
	require.NoError(t, err)
	assert.Equal(t, []string{"claim", ""}, args)

	_, err = Split(`show "1`)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
