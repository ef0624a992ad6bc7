package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpinecapital/crewmesh/core"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kongVars())
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, kctx
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cli, kctx := parse(t, args...)
	out := &bytes.Buffer{}
	err := kctx.Run(&app{ctx: context.Background(), globals: cli, out: out, errOut: &bytes.Buffer{}})
	return out.String(), err
}

func TestRunCmd_Defaults(t *testing.T) {
	cli, kctx := parse(t, "run")
	assert.Equal(t, "run", kctx.Command())
	assert.Equal(t, "employer_branding", cli.Run.Crew)
	assert.Empty(t, cli.Run.Input)
}

func TestRunCmd_Inputs(t *testing.T) {
	cli, _ := parse(t, "run", "--crew", "job_posting", "-i", "hiring_needs=Data Engineer", "-i", "company_domain=example.com")
	assert.Equal(t, "job_posting", cli.Run.Crew)
	assert.Equal(t, map[string]string{"hiring_needs": "Data Engineer", "company_domain": "example.com"}, cli.Run.Input)
}

func TestTrainCmd_Args(t *testing.T) {
	cli, kctx := parse(t, "--log-level", "debug", "train", "3", "-c", "resume_job_matcher")
	assert.Equal(t, "train <n_iterations>", kctx.Command())
	assert.Equal(t, "3", cli.Train.Iterations)
	assert.Equal(t, "resume_job_matcher", cli.Train.Crew)
	assert.Equal(t, "debug", cli.LogLevel)
}

func TestTrainCmd_MissingIterations(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kongVars())
	require.NoError(t, err)
	_, err = parser.Parse([]string{"train"})
	assert.Error(t, err)
}

func TestRun_MockBackend(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mock")

	out, err := run(t, "run", "-c", "resume_job_matcher")
	require.NoError(t, err)
	assert.Contains(t, out, "Mock response to: Current Task: Match the CV")
}

func TestTrain_MockBackend(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mock")

	out, err := run(t, "train", "2", "-c", "resume_job_matcher")
	require.NoError(t, err)
	assert.Contains(t, out, "iteration 1/2: COMPLETED")
	assert.Contains(t, out, "iteration 2/2: COMPLETED")
}

func TestTrain_NonNumeric(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mock")

	_, err := run(t, "train", "many", "-c", "resume_job_matcher")
	assert.True(t, core.IsInputError(err))
}

func TestTrain_NonNumericChecksCountFirst(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	var conns atomic.Int32
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			conns.Add(1)
			_ = c.Close()
		}
	}()

	t.Setenv("MODEL", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("CREWMESH_NATS_URL", "nats://"+ln.Addr().String())

	for _, n := range []string{"abc", "0", "2.5"} {
		_, err := run(t, "train", n)
		assert.True(t, core.IsInputError(err), "n_iterations=%s: %v", n, err)
		assert.False(t, core.IsConfigurationError(err), n)
	}
	assert.Equal(t, int32(0), conns.Load())
}

func TestRun_UnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "llamafarm")

	_, err := run(t, "run")
	assert.True(t, core.IsConfigurationError(err))
}

func TestListCmd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: custom
description: A custom crew.
params:
  - name: topic
    required: true
agents:
  - role: Writer
    goal: write
    backstory: writes
tasks:
  - name: write
    agent: Writer
    description: Write about {{.topic}}.
`), 0o600))

	out, err := run(t, "--definition", path, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "* employer_branding")
	assert.Contains(t, out, "job_posting")
	assert.Contains(t, out, "custom")
	assert.Contains(t, out, "inputs: topic")
}

func TestRun_CustomDefinition(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mock")
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: custom
inputs:
  topic: onboarding
params:
  - name: topic
    required: true
agents:
  - role: Writer
    goal: write
    backstory: writes
tasks:
  - name: write
    agent: Writer
    description: Write about {{.topic}}.
`), 0o600))

	out, err := run(t, "--definition", path, "run", "-c", "custom", "-i", "topic=benefits")
	require.NoError(t, err)
	assert.Contains(t, out, "Write about benefits.")
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "crewmesh dev")
}
