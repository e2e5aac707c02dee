// Package ramfs provides the read-only image archives exec and boot load
// programs from.
package ramfs

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/models"
)

// Map is an in-memory archive.
type Map map[string][]byte

var _ models.ImageSource = Map{}

func (m Map) Find(name string) ([]byte, error) {
	if data, ok := m[clean(name)]; ok {
		return data, nil
	}
	return nil, errors.Wrapf(models.ErrNotFound, "%q", name)
}

func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CompressedExt marks snappy-compressed images in a Dir.
const CompressedExt = ".sz"

// Dir serves images from a host directory. A name resolves to the file of
// that name, or failing that to name+".sz" decompressed.
type Dir struct {
	Root string
}

func (d *Dir) path(name string) (string, bool) {
	name = clean(name)
	if name == "" {
		return "", false
	}
	return filepath.Join(d.Root, filepath.FromSlash(name)), true
}

func (d *Dir) Find(name string) ([]byte, error) {
	path, ok := d.path(name)
	if !ok {
		return nil, errors.Wrapf(models.ErrNotFound, "%q", name)
	}
	data, err := ioutil.ReadFile(path)
	if err == nil {
		return data, nil
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	data, err = ioutil.ReadFile(path + CompressedExt)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(models.ErrNotFound, "%q", name)
	} else if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path+CompressedExt)
	}
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrapf(err, "decompressing %s", path+CompressedExt)
	}
	return out, nil
}

// Names lists the images in the directory.
func (d *Dir) Names() ([]string, error) {
	infos, err := ioutil.ReadDir(d.Root)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var names []string
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(info.Name(), CompressedExt))
	}
	sort.Strings(names)
	return names, nil
}

// Compress stores data under name as a snappy-compressed image.
func (d *Dir) Compress(name string, data []byte) error {
	path, ok := d.path(name)
	if !ok {
		return errors.Errorf("bad image name %q", name)
	}
	return errors.WithStack(ioutil.WriteFile(path+CompressedExt, snappy.Encode(nil, data), 0644))
}

// clean turns an exec path into an archive name. Leading slashes and
// parent references are dropped, so names never escape the archive.
func clean(name string) string {
	var parts []string
	for _, part := range strings.Split(name, "/") {
		switch part {
		case "", ".", "..":
			continue
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "/")
}
