package sensors

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-vfs/vfst"
)

type fakeRunner struct {
	cmds [][]string
	err  error
}

func (r *fakeRunner) Run(command string, args ...string) ([]byte, error) {
	r.cmds = append(r.cmds, append([]string{command}, args...))
	return nil, r.err
}

func (r *fakeRunner) commands() []string {
	var out []string
	for _, cmd := range r.cmds {
		out = append(out, strings.Join(cmd, " "))
	}
	return out
}

func newTestGate(t *testing.T, root interface{}) (*Gate, *fakeRunner, *vfst.TestFS) {
	t.Helper()
	fs, cleanup, err := vfst.NewTestFS(root)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	runner := &fakeRunner{}
	return NewGate(fs, runner, Options{}), runner, fs
}

func TestDisableInstallsRule(t *testing.T) {
	g, runner, fs := newTestGate(t, map[string]interface{}{
		"/usr/share/sonic/platform/dpu_ignore_conf/ignore_DPU0.conf": "chip \"dpu0-*\"\n    ignore temp1\n",
		"/etc/sensors.d": &vfst.Dir{Perm: 0o755},
	})

	assert.True(t, g.Disable("DPU0"))
	assert.Equal(t, []string{"service sensord restart"}, runner.commands())
	assert.True(t, g.Active("DPU0"))

	vfst.RunTests(t, fs, "installed",
		vfst.TestPath("/etc/sensors.d/ignore_DPU0.conf",
			vfst.TestContentsString("chip \"dpu0-*\"\n    ignore temp1\n")),
	)
}

func TestDisableCreatesConfDir(t *testing.T) {
	g, runner, _ := newTestGate(t, map[string]interface{}{
		"/usr/share/sonic/platform/dpu_ignore_conf/ignore_DPU1.conf": "ignore\n",
	})

	assert.True(t, g.Disable("DPU1"))
	assert.True(t, g.Active("DPU1"))
	assert.Len(t, runner.cmds, 1)
}

func TestDisableWithoutTemplate(t *testing.T) {
	g, runner, fs := newTestGate(t, map[string]interface{}{
		"/etc/sensors.d": &vfst.Dir{Perm: 0o755},
	})

	assert.True(t, g.Disable("DPU0"))
	assert.Empty(t, runner.cmds)

	vfst.RunTests(t, fs, "nothing copied",
		vfst.TestPath("/etc/sensors.d/ignore_DPU0.conf", vfst.TestDoesNotExist),
	)
}

func TestDisableCopyFailure(t *testing.T) {
	// conf dir is a regular file, so the copy cannot succeed
	g, runner, _ := newTestGate(t, map[string]interface{}{
		"/usr/share/sonic/platform/dpu_ignore_conf/ignore_DPU0.conf": "ignore\n",
		"/etc/sensors.d": "not a directory",
	})

	assert.False(t, g.Disable("DPU0"))
	assert.Empty(t, runner.cmds)
}

func TestEnableRemovesRule(t *testing.T) {
	g, runner, fs := newTestGate(t, map[string]interface{}{
		"/etc/sensors.d/ignore_DPU0.conf": "ignore\n",
	})

	assert.True(t, g.Enable("DPU0"))
	assert.Equal(t, []string{"service sensord restart"}, runner.commands())
	assert.False(t, g.Active("DPU0"))

	vfst.RunTests(t, fs, "removed",
		vfst.TestPath("/etc/sensors.d/ignore_DPU0.conf", vfst.TestDoesNotExist),
	)
}

func TestEnableWithoutRule(t *testing.T) {
	g, runner, _ := newTestGate(t, map[string]interface{}{
		"/etc/sensors.d": &vfst.Dir{Perm: 0o755},
	})

	assert.True(t, g.Enable("DPU0"))
	assert.Empty(t, runner.cmds)
}

func TestEnableRemoveFailure(t *testing.T) {
	// a non-empty directory in place of the rule cannot be removed
	g, runner, _ := newTestGate(t, map[string]interface{}{
		"/etc/sensors.d/ignore_DPU0.conf/stuck": "x",
	})

	assert.False(t, g.Enable("DPU0"))
	assert.Empty(t, runner.cmds)
}

func TestRestartFailureIgnored(t *testing.T) {
	g, runner, _ := newTestGate(t, map[string]interface{}{
		"/usr/share/sonic/platform/dpu_ignore_conf/ignore_DPU0.conf": "ignore\n",
		"/etc/sensors.d": &vfst.Dir{Perm: 0o755},
	})
	runner.err = errors.New("service: command not found")

	assert.True(t, g.Disable("DPU0"))
	assert.True(t, g.Enable("DPU0"))
	assert.Len(t, runner.cmds, 2)
}

func TestCustomOptions(t *testing.T) {
	fs, cleanup, err := vfst.NewTestFS(map[string]interface{}{
		"/opt/dpu/ignore_DPU3.conf": "ignore\n",
	})
	require.NoError(t, err)
	defer cleanup()

	runner := &fakeRunner{}
	g := NewGate(fs, runner, Options{TemplateDir: "/opt/dpu", ConfDir: "/run/sensors.d", Service: "lm-sensors"})

	assert.Equal(t, "/opt/dpu/ignore_DPU3.conf", g.TemplatePath("DPU3"))
	assert.Equal(t, "/run/sensors.d/ignore_DPU3.conf", g.ConfPath("DPU3"))
	assert.True(t, g.Disable("DPU3"))
	assert.Equal(t, []string{"service lm-sensors restart"}, runner.commands())
}
