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
	"github.com/SnellerInc/bitarray"
	"github.com/SnellerInc/bitarray/compr"
)

// entry point for 'bitz encode ...'
func encode(c *config, data []byte) ([]byte, error) {
	b := bitarray.FromBytes(data, c.endian())
	p := compr.Packer{Logf: c.logf()}
	if c.Compression == "best" {
		frame, name, err := p.Best(b)
		if err != nil {
			return nil, err
		}
		if c.Verbose {
			logger.Printf("best algorithm: %s", name)
		}
		return frame, nil
	}
	return p.Pack(b, c.Compression)
}

// entry point for 'bitz decode ...'
func decode(frame []byte) ([]byte, error) {
	b, err := compr.Unpack(frame)
	if err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func init() {
	addApplet(applet{
		name: "encode",
		help: "<file>",
		desc: `pack the bits of a file into a compressed frame`,
		run: func(c *config, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			frame, err := encode(c, data)
			if err != nil {
				return err
			}
			return writeOutput(c, frame)
		},
	})
	addApplet(applet{
		name: "decode",
		help: "<file>",
		desc: `unpack a frame written by encode`,
		run: func(c *config, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			frame, err := readInput(args[0])
			if err != nil {
				return err
			}
			data, err := decode(frame)
			if err != nil {
				return err
			}
			return writeOutput(c, data)
		},
	})
}
