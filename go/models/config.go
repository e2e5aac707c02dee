package models

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/arch"
)

type Config struct {
	// image booted as the first task
	Init string `toml:"init"`
	// host directory images are read from
	RamfsDir string `toml:"ramfs"`
	// highest break sbrk may set
	HeapLimit uint32 `toml:"heap_limit"`
	// number of kernel stacks available, 0 for the whole stack window
	MaxTasks int `toml:"max_tasks"`

	Color      bool   `toml:"color"`
	Verbose    bool   `toml:"verbose"`
	TraceFile  string `toml:"trace_file"`
	TraceSched bool   `toml:"trace_sched"`

	Output io.WriteCloser `toml:"-"`
}

// Defaults fills in unset fields.
func (c *Config) Defaults() *Config {
	if c.Init == "" {
		c.Init = "init"
	}
	if c.HeapLimit == 0 {
		c.HeapLimit = arch.HeapLimit
	}
	if c.Output == nil {
		c.Output = os.Stderr
	}
	return c
}

// LoadConfig reads a TOML config file over the defaults.
func LoadConfig(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		md, err := toml.DecodeFile(path, c)
		if err != nil {
			return nil, errors.Wrapf(err, "loading config %s", path)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, errors.Errorf("%s: unknown config key %q", path, undec[0].String())
		}
	}
	return c.Defaults(), nil
}
