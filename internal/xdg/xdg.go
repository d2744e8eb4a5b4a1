// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xdg provides cross-platform lookup of configuration files.
package xdg

import (
	"os"
	"path/filepath"
	"syscall"
)

// Config returns the path to the named file within the app's configuration
// directory, searching first in ConfigHome and then in ConfigDirs. If no
// file is found Config returns ENOENT.
func Config(app, name string) (string, error) {
	var bases []string
	if base, ok := ConfigHome(); ok {
		bases = append(bases, base)
	}
	if list, ok := ConfigDirs(); ok {
		bases = append(bases, filepath.SplitList(list)...)
	}
	for _, base := range bases {
		path := filepath.Join(base, app, name)
		fi, err := os.Stat(path)
		if err == nil && fi.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", syscall.ENOENT
}

// ConfigHome returns the user configuration directory.
func ConfigHome() (string, bool) { return configHome.path() }

// ConfigDirs returns the system configuration directory list.
func ConfigDirs() (string, bool) { return configDirs.path() }

// location is a directory or directory list held in an optional
// environment variable with a default.
type location struct {
	// env is the environment variable overriding the default.
	// If empty, only the default is used.
	env string

	// def is the default. A relative default is resolved against
	// the directory held in the home environment variable.
	def  string
	home string
}

func (l location) path() (string, bool) {
	if l.env != "" {
		val, ok := os.LookupEnv(l.env)
		if ok {
			return val, true
		}
	}
	if l.def == "" {
		return "", false
	}
	if l.home == "" || filepath.IsAbs(l.def) {
		return l.def, true
	}
	base, ok := os.LookupEnv(l.home)
	if !ok {
		return "", false
	}
	return filepath.Join(base, l.def), true
}
