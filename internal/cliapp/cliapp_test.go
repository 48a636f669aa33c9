package cliapp_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilfoo/stako/internal/cliapp"
)

func TestValidateRequiresExactlyOnePath(t *testing.T) {
	var c cliapp.Cmd
	c.SetArgs(nil)
	assert.Error(t, c.Validate())

	c.SetArgs([]string{"a.sk", "b.sk"})
	assert.Error(t, c.Validate())

	c.SetArgs([]string{"a.sk"})
	assert.NoError(t, c.Validate())
}

func TestValidateRejectsUnknownDump(t *testing.T) {
	var c cliapp.Cmd
	c.SetArgs([]string{"a.sk"})
	c.Dump = "bogus"
	assert.Error(t, c.Validate())

	c.Dump = "resolved"
	assert.NoError(t, c.Validate())
}

func TestValidateAllowsHelpWithNoArgs(t *testing.T) {
	var c cliapp.Cmd
	c.Help = true
	c.SetArgs(nil)
	assert.NoError(t, c.Validate())
}

func TestMainRunsProgram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.sk")
	src := `main :: () -> void { print 42; };`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	var out, errOut bytes.Buffer
	c := cliapp.Cmd{}
	code := c.Main([]string{"stako", path}, mainer.Stdio{Stdout: &out, Stderr: &errOut})
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out.String(), "42")
	assert.Empty(t, errOut.String())
}

func TestMainPrintsUsageOnMissingArgs(t *testing.T) {
	var out, errOut bytes.Buffer
	c := cliapp.Cmd{}
	code := c.Main([]string{"stako"}, mainer.Stdio{Stdout: &out, Stderr: &errOut})
	assert.NotEqual(t, mainer.Success, code)
	assert.NotEmpty(t, errOut.String())
}

func TestMainReportsCompileError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.sk")
	require.NoError(t, os.WriteFile(path, []byte(`main :: () -> void { x := ; };`), 0o644))

	var out, errOut bytes.Buffer
	c := cliapp.Cmd{}
	code := c.Main([]string{"stako", path}, mainer.Stdio{Stdout: &out, Stderr: &errOut})
	assert.Equal(t, mainer.Failure, code)
	assert.NotEmpty(t, errOut.String())
}
