package models

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// NewLogger builds the console the kernel reports to.
func NewLogger(c *Config) *logrus.Logger {
	var out io.Writer = c.Output
	if out == nil {
		out = os.Stderr
	}
	color := c.Color
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		out = colorable.NewColorable(f)
	} else {
		color = false
	}
	log := logrus.New()
	log.Out = out
	log.Formatter = &logrus.TextFormatter{
		DisableTimestamp: true,
		ForceColors:      color,
		DisableColors:    !color,
	}
	log.Level = logrus.InfoLevel
	if c.Verbose {
		log.Level = logrus.DebugLevel
	}
	return log
}
