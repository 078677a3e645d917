// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/SnellerInc/bitarray"
	"github.com/SnellerInc/bitarray/compr"

	"sigs.k8s.io/yaml"
)

// config holds the settings shared by all applets.
// Values come from the YAML file named by -config
// or $BITZ_CONFIG; flags given on the command line
// take precedence.
type config struct {
	Endian      string `json:"endian,omitempty"`
	Compression string `json:"compression,omitempty"`
	Output      string `json:"output,omitempty"`
	Seed        uint64 `json:"seed,omitempty"`
	Verbose     bool   `json:"verbose,omitempty"`
}

func defaultConfig() *config {
	return &config{
		Endian:      dashe,
		Compression: dashc,
		Output:      dasho,
		Seed:        dashseed,
		Verbose:     dashv,
	}
}

// loadConfig reads the config file at path, or at
// $BITZ_CONFIG when path is empty. A missing variable
// yields the flag defaults.
func loadConfig(path string, getenv func(string) string) (*config, error) {
	c := defaultConfig()
	if path == "" {
		path = getenv("BITZ_CONFIG")
	}
	if path == "" {
		return c, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.UnmarshalStrict(buf, c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// override applies a flag set on the command line.
func (c *config) override(f *flag.Flag) {
	switch f.Name {
	case "e":
		c.Endian = dashe
	case "c":
		c.Compression = dashc
	case "o":
		c.Output = dasho
	case "seed":
		c.Seed = dashseed
	case "v":
		c.Verbose = dashv
	}
}

func (c *config) validate() error {
	if _, err := bitarray.ParseEndian(c.Endian); err != nil {
		return err
	}
	if c.Compression != "best" && compr.Compression(c.Compression) == nil {
		return fmt.Errorf("unknown compression %q (have %v and best)", c.Compression, compr.Names())
	}
	return nil
}

func (c *config) endian() bitarray.Endian {
	e, _ := bitarray.ParseEndian(c.Endian)
	return e
}

// logf returns the logging hook for library
// types, or nil unless verbose output is on.
func (c *config) logf() func(f string, args ...any) {
	if !c.Verbose {
		return nil
	}
	return logger.Printf
}
