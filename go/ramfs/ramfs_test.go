package ramfs

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/models"
)

func TestMap(t *testing.T) {
	m := Map{"init": []byte("a"), "bin/sh": []byte("b")}
	if data, err := m.Find("/init"); err != nil || string(data) != "a" {
		t.Errorf("Find(/init) = %q, %v", data, err)
	}
	if data, err := m.Find("bin/../bin/sh"); err != nil || string(data) != "b" {
		t.Errorf("Find(bin/sh) = %q, %v", data, err)
	}
	if _, err := m.Find("missing"); errors.Cause(err) != models.ErrNotFound {
		t.Errorf("Find(missing) = %v", err)
	}
	if names := m.Names(); len(names) != 2 || names[0] != "bin/sh" {
		t.Errorf("Names() = %v", names)
	}
}

func TestDir(t *testing.T) {
	root, err := ioutil.TempDir("", "ramfs")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(root)
	if err := ioutil.WriteFile(filepath.Join(root, "plain"), []byte("plain data"), 0644); err != nil {
		t.Fatal(err)
	}
	d := &Dir{Root: root}
	packed := bytes.Repeat([]byte("compress me "), 100)
	if err := d.Compress("packed", packed); err != nil {
		t.Fatal(err)
	}

	if data, err := d.Find("/plain"); err != nil || string(data) != "plain data" {
		t.Errorf("Find(plain) = %q, %v", data, err)
	}
	if data, err := d.Find("packed"); err != nil || !bytes.Equal(data, packed) {
		t.Errorf("Find(packed) = %d bytes, %v", len(data), err)
	}
	if _, err := d.Find("nope"); errors.Cause(err) != models.ErrNotFound {
		t.Errorf("Find(nope) = %v", err)
	}
	if _, err := d.Find("/"); errors.Cause(err) != models.ErrNotFound {
		t.Errorf("Find(/) = %v", err)
	}
	names, err := d.Names()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "packed" || names[1] != "plain" {
		t.Errorf("Names() = %v", names)
	}
}

func TestClean(t *testing.T) {
	tests := map[string]string{
		"init":          "init",
		"/bin/sh":       "bin/sh",
		"../../etc/pwd": "etc/pwd",
		"./a//b/":       "a/b",
	}
	for in, want := range tests {
		if got := clean(in); got != want {
			t.Errorf("clean(%q) = %q, want %q", in, got, want)
		}
	}
}
