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
	"fmt"
	"io"
	"strconv"

	"github.com/SnellerInc/bitarray/compr"
	"github.com/SnellerInc/bitarray/randp"
)

// entry point for 'bitz random ...'
func random(c *config, n int, p float64) ([]byte, error) {
	var src io.Reader
	if c.Seed != 0 {
		src = randp.Seeded(c.Seed)
	}
	g := randp.New(src)
	g.Logf = c.logf()
	b, err := g.RandomP(n, p, c.endian())
	if err != nil {
		return nil, err
	}
	pk := compr.Packer{Logf: c.logf()}
	if c.Compression == "best" {
		frame, _, err := pk.Best(b)
		return frame, err
	}
	return pk.Pack(b, c.Compression)
}

func init() {
	addApplet(applet{
		name: "random",
		help: "<bits> <probability>",
		desc: `write a frame holding random bits, each set with the given probability`,
		run: func(c *config, args []string) error {
			if len(args) != 2 {
				return errUsage
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("bit count: %w", err)
			}
			p, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("probability: %w", err)
			}
			frame, err := random(c, n, p)
			if err != nil {
				return err
			}
			return writeOutput(c, frame)
		},
	})
}
