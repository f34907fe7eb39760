package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestReplayCommand(t *testing.T) {
	t.Run("prints every update", func(t *testing.T) {
		out, _, err := execute(t, "replay", "testdata/counter.yaml")
		require.NoError(t, err)

		g := goldie.New(t,
			goldie.WithFixtureDir("testdata/golden"),
			goldie.WithNameSuffix(".golden"),
		)
		g.Assert(t, "counter", []byte(out))
	})

	t.Run("outputs json", func(t *testing.T) {
		out, _, err := execute(t, "replay", "--format", "json", "testdata/counter.yaml")
		require.NoError(t, err)

		var result ReplayResult
		require.NoError(t, json.Unmarshal([]byte(out), &result))

		assert.Equal(t, "counter", result.Scenario)
		assert.Equal(t, 0, result.Failed)
		require.Len(t, result.Steps, 5)
		assert.JSONEq(t, `{"count":2,"history":["hello"]}`, string(result.Steps[2].State))
		assert.Nil(t, result.Steps[3].State)
		assert.JSONEq(t, `{"count":0}`, string(result.Final))
	})

	t.Run("reports failing steps", func(t *testing.T) {
		out, stderr, err := execute(t, "replay", "testdata/failing.yaml")

		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, `step 1 rename: {"title":"final"}`)
		assert.Contains(t, out, "step 2 bump: error:")
		assert.Contains(t, out, `final: {"title":"final"}`)
		assert.Contains(t, stderr, "step failed")
	})

	t.Run("logs dispatches when verbose", func(t *testing.T) {
		_, stderr, err := execute(t, "replay", "-v", "testdata/counter.yaml")
		require.NoError(t, err)

		assert.Contains(t, stderr, "replaying scenario")
		assert.Contains(t, stderr, "dispatch")
	})

	t.Run("refuses invalid scenarios", func(t *testing.T) {
		_, _, err := execute(t, "replay", "testdata/invalid.yaml")

		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("fails on missing files", func(t *testing.T) {
		_, _, err := execute(t, "replay", "testdata/nope.yaml")

		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		_, _, err := execute(t, "replay", "--format", "xml", "testdata/counter.yaml")
		assert.ErrorContains(t, err, "invalid format")
	})
}

func TestReplay(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("one notification per dispatch that changed the state", func(t *testing.T) {
		s, err := ParseScenario([]byte(`
name: batch
events:
  fill:
    - op: set
      path: a
      value: 1
    - op: set
      path: b
      from: payload
    - op: add
      path: a
      value: 2
dispatch:
  - event: fill
    payload: [x, y]
`))
		require.NoError(t, err)
		require.NoError(t, s.Validate())

		result, err := Replay(s, logger)
		require.NoError(t, err)

		require.Len(t, result.Steps, 1)
		assert.JSONEq(t, `{"a":3,"b":["x","y"]}`, string(result.Steps[0].State))
		assert.JSONEq(t, `{"a":3,"b":["x","y"]}`, string(result.Final))
	})

	t.Run("starts from a sequence", func(t *testing.T) {
		s, err := ParseScenario([]byte(`
name: list
state: [1]
events:
  push:
    - op: set
      path: "-1"
      from: payload
dispatch:
  - event: push
    payload: 2
`))
		require.NoError(t, err)
		require.NoError(t, s.Validate())

		result, err := Replay(s, logger)
		require.NoError(t, err)
		assert.JSONEq(t, `[1,2]`, string(result.Final))
	})
}
