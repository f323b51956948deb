package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gojags/pkg/ndarray"
)

const normalModel = `model {
  for (i in 1:N) {
    y[i] ~ dnorm(mu, tau)
  }
  mu ~ dnorm(0, 0.001)
  tau ~ dgamma(1, 1)
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// run executes the command tree against the reference engine.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := buildRootCmd(&stdout, &stderr)
	base := []string{"--engine", "sim", "--env-file", filepath.Join(t.TempDir(), "none.env"), "--log-level", "off"}
	root.SetArgs(append(base, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestCheck_ListsVariables(t *testing.T) {
	p := writeFile(t, "m.bug", normalModel)
	out, _, err := run(t, "check", p)
	require.NoError(t, err)
	assert.Equal(t, []string{"N", "mu", "tau", "y"}, strings.Fields(out))
}

func TestCheck_SyntaxError(t *testing.T) {
	p := writeFile(t, "bad.bug", "model { mu ~ }")
	_, _, err := run(t, "check", p)
	require.Error(t, err)
}

func TestSample_WritesDraws(t *testing.T) {
	m := writeFile(t, "m.bug", normalModel)
	d := writeFile(t, "data.json", `{"N": 3, "y": [1, 2, 3]}`)
	outPath := filepath.Join(t.TempDir(), "draws.json")
	_, stderr, err := run(t, "sample", m, "--data", d, "--chains", "2", "--tune", "-1",
		"-n", "6", "--thin", "2", "--vars", "mu, tau", "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, stderr, "sampling: iterations 6 of 6")

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var draws map[string]ndarray.NDArray
	require.NoError(t, json.Unmarshal(b, &draws))
	require.Contains(t, draws, "mu")
	require.Contains(t, draws, "tau")
	assert.Len(t, draws, 2)
	assert.Equal(t, []int{1, 3, 2}, draws["mu"].Shape)
}

func TestSample_UnusedDataFails(t *testing.T) {
	m := writeFile(t, "m.bug", normalModel)
	d := writeFile(t, "data.yaml", "N: 3\ny: [1, 2, 3]\nz: 1\n")
	_, _, err := run(t, "sample", m, "--data", d, "-q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unused data for variables: z")
}

func TestSample_InitPerChain(t *testing.T) {
	m := writeFile(t, "m.bug", normalModel)
	d := writeFile(t, "data.toml", "N = 3\ny = [1.0, 2.0, 3.0]\n")
	init := writeFile(t, "init.json", `[{"mu": 0, ".RNG.name": "base::Wichmann-Hill"}, {"mu": 1}]`)
	out, _, err := run(t, "sample", m, "--data", d, "--init", init, "--chains", "2", "--tune", "-1", "-n", "2", "--vars", "mu", "-q")
	require.NoError(t, err)
	var draws map[string]ndarray.NDArray
	require.NoError(t, json.Unmarshal([]byte(out), &draws))
	assert.Equal(t, []int{1, 2, 2}, draws["mu"].Shape)
}

func TestLoadInit(t *testing.T) {
	states, err := loadInit("")
	require.NoError(t, err)
	assert.Nil(t, states)

	shared := writeFile(t, "init.yaml", "mu: 2\n.RNG.name: base::Mersenne-Twister\n")
	states, err = loadInit(shared)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "base::Mersenne-Twister", states[0].RNGName)
	assert.Equal(t, []float64{2}, states[0].Values["mu"].Data)

	list := writeFile(t, "init.json", ` [{"mu": 1}, {"mu": [1, 2]}]`)
	states, err = loadInit(list)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, []int{2}, states[1].Values["mu"].Shape)

	_, err = loadInit(writeFile(t, "init.txt", "mu=1"))
	assert.Error(t, err)
}

func TestModules_ListsLoaded(t *testing.T) {
	out, _, err := run(t, "--modules", "basemod,bugs,lecuyer", "modules")
	require.NoError(t, err)
	assert.Equal(t, []string{"basemod", "bugs", "lecuyer"}, strings.Fields(out))
}

func TestModules_Available(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "glm.so"), nil, 0o644))
	out, _, err := run(t, "--modules-dir", dir, "modules", "--available")
	require.NoError(t, err)
	assert.Contains(t, out, "glm")
	assert.Contains(t, out, filepath.Join(dir, "glm.so"))
}

func TestFactories_FilterAndToggle(t *testing.T) {
	out, _, err := run(t, "factories", "rng")
	require.NoError(t, err)
	assert.Contains(t, out, "base::BaseRNG")
	assert.NotContains(t, out, "base::Slice")

	out, _, err = run(t, "factories", "sampler", "--deactivate", "base::Slice")
	require.NoError(t, err)
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "base::Slice") {
			assert.Equal(t, []string{"base::Slice", "sampler", "false"}, strings.Fields(line))
		}
	}

	_, _, err = run(t, "factories", "--activate", "base::Slice")
	assert.Error(t, err)
	_, _, err = run(t, "factories", "bogus")
	assert.Error(t, err)
}

func TestRNGs_IssuesStates(t *testing.T) {
	out, _, err := run(t, "rngs", "base::BaseRNG", "3")
	require.NoError(t, err)
	var states []ndarray.ChainState
	require.NoError(t, json.Unmarshal([]byte(out), &states))
	require.Len(t, states, 3)
	for _, st := range states {
		assert.NotEmpty(t, st.RNGName)
		assert.Contains(t, st.Values, ndarray.RNGStateKey)
	}

	_, _, err = run(t, "rngs", "base::BaseRNG", "0")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "jags support built:")
	assert.Contains(t, out, "engine version:")
}

func TestInvalidEngine(t *testing.T) {
	var stdout, stderr bytes.Buffer
	root := buildRootCmd(&stdout, &stderr)
	root.SetArgs([]string{"--engine", "stan", "--env-file", "", "version"})
	assert.Error(t, root.Execute())
}

func TestConfigFileAndEnv(t *testing.T) {
	cfg := writeFile(t, "gojags.yaml", "engine: sim\nmodules: [basemod, bugs, lecuyer]\nlog_level: off\n")
	t.Setenv("GOJAGS_MODULES", "basemod,lecuyer")
	var stdout, stderr bytes.Buffer
	root := buildRootCmd(&stdout, &stderr)
	root.SetArgs([]string{"--config", cfg, "--env-file", filepath.Join(t.TempDir(), "none.env"), "modules"})
	require.NoError(t, root.Execute())
	assert.Equal(t, []string{"basemod", "lecuyer"}, strings.Fields(stdout.String()))
}

func TestCompletion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	root := buildRootCmd(&stdout, &stderr)
	root.SetArgs([]string{"completion", "bash"})
	require.NoError(t, root.Execute())
	assert.Contains(t, stdout.String(), "gojags")

	root = buildRootCmd(&stdout, &stderr)
	root.SetArgs([]string{"completion", "tcsh"})
	assert.Error(t, root.Execute())
}

func TestMain_ExitCodes(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, Main([]string{"nope"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "error:")
}
