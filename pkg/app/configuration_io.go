package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// loadFrom decodes a YAML document over the current values. JSON documents
// are valid YAML, so a config.json is accepted as well.
func (this *Configuration) loadFrom(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(this); err != nil && err != io.EOF {
		return err
	}
	this.adoptLegacy()
	return this.Validate()
}

// loadFromFile returns false if the file does not exist. Every other
// problem is reported as *ConfigError.
func (this *Configuration) loadFromFile(fn string) (exists bool, _ error) {
	f, err := os.Open(fn)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &ConfigError{File: fn, Cause: err}
	}
	defer func() {
		_ = f.Close()
	}()

	if err := this.loadFrom(f); err != nil {
		return true, &ConfigError{File: fn, Cause: err}
	}

	return true, nil
}

func (this *Configuration) saveTo(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(this); err != nil {
		return err
	}
	return enc.Close()
}

func (this *Configuration) saveToFile(fn string) error {
	_ = os.MkdirAll(filepath.Dir(fn), 0700)

	f, err := os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("cannot open configuration file %q: %w", fn, err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := this.saveTo(f); err != nil {
		return fmt.Errorf("cannot write file %q: %w", fn, err)
	}

	return nil
}
