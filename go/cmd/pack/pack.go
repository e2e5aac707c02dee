package pack

import (
	"bytes"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/cmd"
	"github.com/lunixbochs/kernelcorn/go/loader"
	"github.com/lunixbochs/kernelcorn/go/ramfs"
)

// Pack stores each file in d under its base name, compressed. Files that
// are not ELF executables are rejected unless force is set.
func Pack(d *ramfs.Dir, files []string, force bool) error {
	for _, path := range files {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return errors.WithStack(err)
		}
		if !force && !loader.MatchElf(bytes.NewReader(data)) {
			return errors.Errorf("%s: not an ELF executable", path)
		}
		if err := d.Compress(filepath.Base(path), data); err != nil {
			return err
		}
	}
	return nil
}

func Main(args []string) {
	fs := flag.NewFlagSet("args", flag.ExitOnError)
	dir := fs.String("ramfs", "ramfs", "image directory to write into")
	force := fs.Bool("f", false, "pack files that are not ELF executables")
	fs.Usage = func() {
		fmt.Printf("Usage: %s [options] <file>...\n", args[0])
		fs.PrintDefaults()
	}
	fs.Parse(args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}
	if err := os.MkdirAll(*dir, 0755); err != nil {
		cmd.PrintError(errors.WithStack(err))
		os.Exit(1)
	}
	if err := Pack(&ramfs.Dir{Root: *dir}, fs.Args(), *force); err != nil {
		cmd.PrintError(err)
		os.Exit(1)
	}
}

func init() { cmd.Register("pack", "compress executables into an image directory", Main) }
