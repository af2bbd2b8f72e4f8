package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"serve", "migrate"} {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := root.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, cmd.Name())
		})
	}

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("self-contained"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}

func TestMigrateSelfContained(t *testing.T) {
	t.Setenv("SELF_CONTAINED", "true")

	root := newRootCmd()
	root.SetArgs([]string{"migrate", "--log-level", "error"})
	err := root.Execute()
	assert.ErrorContains(t, err, "nothing to migrate")
}
