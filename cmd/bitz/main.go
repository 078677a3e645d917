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

// Command bitz packs, unpacks and inspects bitarrays.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
)

var (
	dashv      bool
	dashh      bool
	dashc      string
	dashe      string
	dasho      string
	dashconfig string
	dashseed   uint64
)

func init() {
	flag.BoolVar(&dashv, "v", false, "verbose")
	flag.BoolVar(&dashh, "h", false, "show usage help")
	flag.StringVar(&dashc, "c", "sparse", "compression algorithm (or \"best\")")
	flag.StringVar(&dashe, "e", "big", "bit endianness (big or little)")
	flag.StringVar(&dasho, "o", "-", "output file (or - for stdout)")
	flag.StringVar(&dashconfig, "config", "", "YAML config file (default: $BITZ_CONFIG)")
	flag.Uint64Var(&dashseed, "seed", 0, "random seed (0 reads crypto/rand)")
}

// errUsage is returned by applets
// called with the wrong arguments.
var errUsage = errors.New("bad usage")

type applet struct {
	name string
	help string
	desc string
	run  func(c *config, args []string) error
}

var applets = map[string]applet{}

func addApplet(a applet) {
	if _, ok := applets[a.name]; ok {
		panic("duplicate applet " + a.name)
	}
	applets[a.name] = a
}

var logger = log.New(os.Stderr, "bitz: ", log.Lshortfile)

func exitf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage:\n")
	names := make([]string, 0, len(applets))
	for name := range applets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a := applets[name]
		fmt.Fprintf(os.Stderr, "    %s [flags] %s %s\n", os.Args[0], a.name, a.help)
		fmt.Fprintf(os.Stderr, "        %s\n", a.desc)
	}
	fmt.Fprintf(os.Stderr, "flag usage:\n")
	flag.PrintDefaults()
}

// output opens the file named by -o.
func output(c *config) (io.WriteCloser, error) {
	if c.Output == "-" || c.Output == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(c.Output)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// readInput reads the named file, or stdin for "-".
func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

// writeOutput writes p to the file named by -o.
func writeOutput(c *config, p []byte) error {
	out, err := output(c)
	if err != nil {
		return err
	}
	if _, err := out.Write(p); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 || dashh {
		usage()
		os.Exit(1)
	}
	c, err := loadConfig(dashconfig, os.Getenv)
	if err != nil {
		exitf("loading config: %s\n", err)
	}
	flag.Visit(c.override)
	if err := c.validate(); err != nil {
		exitf("%s\n", err)
	}
	a, ok := applets[args[0]]
	if !ok {
		usage()
		os.Exit(1)
	}
	err = a.run(c, args[1:])
	if errors.Is(err, errUsage) {
		exitf("usage: %s %s\n", a.name, a.help)
	}
	if err != nil {
		exitf("%s: %s\n", a.name, err)
	}
}
