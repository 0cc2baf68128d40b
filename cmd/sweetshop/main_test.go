package main

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/georgemunganga/sweetshop/internal/modules/stub"
)

type harness struct {
	t    *testing.T
	base []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log, _ := test.NewNullLogger()
	srv := httptest.NewServer(stub.NewRouter(stub.Options{SigningKey: []byte("cli"), Logger: log}))
	t.Cleanup(srv.Close)

	exiter := cli.OsExiter
	cli.OsExiter = func(int) {}
	t.Cleanup(func() { cli.OsExiter = exiter })

	return &harness{t: t, base: []string{
		"sweetshop",
		"--api-url", srv.URL + "/api",
		"--store", "sqlite",
		"--store-dsn", filepath.Join(t.TempDir(), "cli.db"),
		"--log-level", "error",
	}}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	a := newCLI()
	a.Writer, a.ErrWriter = &out, &errOut
	err := a.Run(append(append([]string{}, h.base...), args...))
	return out.String() + errOut.String(), err
}

func TestAdminSession(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("register", "--role", "admin", "Amy", "amy@x.com", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "/admin/dashboard")

	out, err = h.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Amy <amy@x.com> (admin)")

	_, err = h.run("add", "Ladoo", "Indian", "2.5", "5")
	require.NoError(t, err)
	_, err = h.run("add", "Barfi", "Indian", "1", "0")
	require.NoError(t, err)

	out, err = h.run("list", "--text", "lad")
	require.NoError(t, err)
	assert.Contains(t, out, "Ladoo")
	assert.NotContains(t, out, "Barfi")

	out, err = h.run("stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total sweets:  2")
	assert.Contains(t, out, "Out of stock:  1")

	_, err = h.run("logout")
	require.NoError(t, err)
	_, err = h.run("stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/login")
}

func TestCustomerIsSentToOwnDashboard(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("register", "Bo", "bo@x.com", "secret1")
	require.NoError(t, err)

	_, err = h.run("stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/customer/dashboard")

	out, err := h.run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "No sweets found.")

	_, err = h.run("login", "bo@x.com", "wrong-password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email or password")
}

func TestBuy(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("register", "--role", "admin", "Amy", "amy@x.com", "secret1")
	require.NoError(t, err)
	out, err := h.run("add", "Ladoo", "Indian", "2.5", "5")
	require.NoError(t, err)
	start, end := strings.Index(out, "("), strings.Index(out, ")")
	require.True(t, start >= 0 && end > start, out)
	id := out[start+1 : end]

	out, err = h.run("buy", "--qty", "3", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Bought 3 Ladoo, 2 left")

	out, err = h.run("buy", "--qty", "5", id)
	require.Error(t, err)
	assert.Contains(t, out, "insufficient stock: 2 available")

	_, err = h.run("buy")
	require.Error(t, err)
}
