// Package lifecycle executes host reboot/shutdown requests received from
// the MCB, gated to Tegra hardware: on any other platform the request is
// logged and dropped rather than risking a reboot loop on a developer's
// workstation.
package lifecycle

import (
	"os"
	"os/exec"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/messages"
	"github.com/asgard/heimdall/internal/obslog"
)

const tegraReleaseMarker = "/etc/nv_tegra_release"

// Controller issues reboot/shutdown commands.
type Controller struct {
	logger *logrus.Logger
	// runCommand is overridden in tests to avoid actually exec'ing sudo.
	runCommand func(name string, args ...string) error
}

// New constructs a Controller that shells out to sudo for real.
func New(logger *logrus.Logger) *Controller {
	return &Controller{logger: logger, runCommand: runCommand}
}

func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// isTegra reports whether this host is a Jetson/Tegra board: arm64 and
// carrying the Tegra release marker file.
func isTegra() bool {
	if runtime.GOARCH != "arm64" {
		return false
	}
	_, err := os.Stat(tegraReleaseMarker)
	return err == nil
}

// RebootHandler returns the uart.Handler-satisfying adapter that
// triggers a reboot on receipt.
func (c *Controller) RebootHandler() messages.RebootHandler {
	return messages.RebootHandler{OnMessage: func(receiptTime clock.Timestamp[clock.Local]) error {
		return c.handle("reboot", receiptTime, []string{"reboot"})
	}}
}

// ShutdownHandler returns the uart.Handler-satisfying adapter that
// triggers a shutdown on receipt.
func (c *Controller) ShutdownHandler() messages.ShutdownHandler {
	return messages.ShutdownHandler{OnMessage: func(receiptTime clock.Timestamp[clock.Local]) error {
		return c.handle("shutdown", receiptTime, []string{"shutdown", "now"})
	}}
}

func (c *Controller) handle(name string, receiptTime clock.Timestamp[clock.Local], args []string) error {
	entry := obslog.Frame(c.logger, receiptTime)
	if !isTegra() {
		entry.WithField("request", name).Warn("lifecycle: ignoring request on non-Tegra host")
		return nil
	}
	entry.WithField("request", name).Warn("lifecycle: executing host " + name)
	return c.runCommand("sudo", args...)
}
