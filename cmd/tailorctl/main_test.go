package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "seed-admin", "expire-subscriptions", "list-users"} {
		assert.True(t, names[want], want)
	}

	migrate, _, err := root.Find([]string{"migrate", "status"})
	require.NoError(t, err)
	assert.Equal(t, "status", migrate.Name())
}

func TestCommandsFailWithoutConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")

	for _, args := range [][]string{{"migrate", "up"}, {"seed-admin"}, {"expire-subscriptions"}} {
		root := newRootCommand()
		root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})

		err := root.ExecuteContext(context.Background())
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "JWT_SECRET is required", args)
	}
}
