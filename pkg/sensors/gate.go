// Package sensors suppresses and restores hardware sensor polling for a
// module by managing sensor daemon ignore rules.
package sensors

import (
	"fmt"
	"path/filepath"

	"github.com/otiai10/copy"
	vfs "github.com/twpayne/go-vfs"

	"dpu-platform/pkg"
)

// Default locations of the ignore-rule templates and the sensor daemon
const (
	DefaultTemplateDir = "/usr/share/sonic/platform/dpu_ignore_conf"
	DefaultConfDir     = "/etc/sensors.d"
	DefaultService     = "sensord"
)

// Gate installs and removes per-module ignore rules
type Gate struct {
	fs          vfs.FS
	runner      Runner
	templateDir string
	confDir     string
	service     string
}

// Options override the gate defaults; zero values keep them
type Options struct {
	TemplateDir string
	ConfDir     string
	Service     string
}

// NewGate creates a gate. A nil runner runs commands on the host.
func NewGate(fs vfs.FS, runner Runner, opts Options) *Gate {
	g := &Gate{
		fs:          fs,
		runner:      runner,
		templateDir: opts.TemplateDir,
		confDir:     opts.ConfDir,
		service:     opts.Service,
	}
	if g.runner == nil {
		g.runner = RealRunner{}
	}
	if g.templateDir == "" {
		g.templateDir = DefaultTemplateDir
	}
	if g.confDir == "" {
		g.confDir = DefaultConfDir
	}
	if g.service == "" {
		g.service = DefaultService
	}
	return g
}

// FileName returns the ignore-rule file name of a module
func FileName(name string) string {
	return fmt.Sprintf("ignore_%s.conf", name)
}

// TemplatePath returns the shipped ignore-rule template of a module
func (g *Gate) TemplatePath(name string) string {
	return filepath.Join(g.templateDir, FileName(name))
}

// ConfPath returns where the active ignore rule of a module lives
func (g *Gate) ConfPath(name string) string {
	return filepath.Join(g.confDir, FileName(name))
}

// Active reports whether an ignore rule is installed for the module
func (g *Gate) Active(name string) bool {
	_, err := g.fs.Stat(g.ConfPath(name))
	return err == nil
}

// Disable installs the module's ignore rule and restarts the sensor service.
// A module without a template needs no suppression.
func (g *Gate) Disable(name string) bool {
	logger := pkg.ForModule(name)
	template := g.TemplatePath(name)
	if _, err := g.fs.Stat(template); err != nil {
		logger.WithField("path", template).Debug("no sensor ignore template")
		return true
	}

	if err := g.copyTemplate(template, g.ConfPath(name)); err != nil {
		logger.WithError(err).Error("failed to install sensor ignore rule")
		return false
	}
	g.restart(name)
	return true
}

// Enable removes the module's ignore rule and restarts the sensor service
func (g *Gate) Enable(name string) bool {
	logger := pkg.ForModule(name)
	conf := g.ConfPath(name)
	if _, err := g.fs.Stat(conf); err != nil {
		logger.WithField("path", conf).Debug("no sensor ignore rule installed")
		return true
	}

	if err := g.fs.Remove(conf); err != nil {
		logger.WithError(err).Error("failed to remove sensor ignore rule")
		return false
	}
	g.restart(name)
	return true
}

func (g *Gate) copyTemplate(src, dst string) error {
	rawSrc, err := g.fs.RawPath(src)
	if err != nil {
		return err
	}
	if err := vfs.MkdirAll(g.fs, filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	rawDst, err := g.fs.RawPath(dst)
	if err != nil {
		return err
	}
	return copy.Copy(rawSrc, rawDst, copy.Options{PreserveTimes: true})
}

// restart is fire-and-forget; failures are only logged
func (g *Gate) restart(name string) {
	out, err := g.runner.Run("service", g.service, "restart")
	if err != nil {
		pkg.ForModule(name).WithError(err).WithField("output", string(out)).Warn("sensor service restart failed")
	}
}
