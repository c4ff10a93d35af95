// Package wgquick управляет туннельным интерфейсом через внешние утилиты
// (wg-quick up/down, systemctl reload wg-quick@<iface>).
package wgquick

import (
	"fmt"
	"strings"

	"wgdash/internal/apperr"
	"wgdash/internal/exec_commander"
	"wgdash/internal/logs"
	"wgdash/internal/metrics"
)

// Controller — ровно четыре операции над интерфейсом.
type Controller interface {
	Start() error
	Stop() error
	Restart() error
	Reload() error
}

// Options — имена бинарников и интерфейса.
type Options struct {
	Interface    string // wg0
	QuickBin     string // wg-quick
	SystemctlBin string // systemctl
}

type controller struct {
	cmd  exec_commander.Commander
	opts Options
}

func New(cmd exec_commander.Commander, opts Options) Controller {
	if opts.QuickBin == "" {
		opts.QuickBin = "wg-quick"
	}
	if opts.SystemctlBin == "" {
		opts.SystemctlBin = "systemctl"
	}
	return &controller{cmd: cmd, opts: opts}
}

func (c *controller) Start() error {
	if err := c.run(c.opts.QuickBin, "up", c.opts.Interface); err != nil {
		return apperr.ExternalTool("start", err, "could not start WireGuard")
	}
	return nil
}

func (c *controller) Stop() error {
	if err := c.run(c.opts.QuickBin, "down", c.opts.Interface); err != nil {
		return apperr.ExternalTool("stop", err, "could not stop WireGuard")
	}
	return nil
}

// Restart = Stop, затем Start. Если Stop упал, Start не вызывается;
// если упал Start, интерфейс остаётся опущенным.
func (c *controller) Restart() error {
	if err := c.Stop(); err != nil {
		return err
	}
	return c.Start()
}

func (c *controller) Reload() error {
	if err := c.run(c.opts.SystemctlBin, "reload", "wg-quick@"+c.opts.Interface); err != nil {
		return apperr.ExternalTool("reload", err, "could not reload WireGuard")
	}
	return nil
}

func (c *controller) run(name string, args ...string) error {
	line := name + " " + strings.Join(args, " ")
	logs.Logger.Debugf("exec: %s", line)
	out, err := c.cmd.CombinedOutput(name, args...)
	metrics.TunnelCommands.WithLabelValues(args[0], metrics.Result(err)).Inc()
	if err != nil {
		logs.Logger.Errorf("exec failed: %s: %v output=%q", line, err, strings.TrimSpace(string(out)))
		if o := strings.TrimSpace(string(out)); o != "" {
			return fmt.Errorf("%s: %w: %s", line, err, o)
		}
		return fmt.Errorf("%s: %w", line, err)
	}
	logs.Logger.Debugf("exec ok: %s output=%q", line, strings.TrimSpace(string(out)))
	return nil
}
