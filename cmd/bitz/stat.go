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
	"text/tabwriter"

	"github.com/SnellerInc/bitarray"
	"github.com/SnellerInc/bitarray/compr"
	"github.com/SnellerInc/bitarray/ints"
	"github.com/SnellerInc/bitarray/sparse"
	"github.com/SnellerInc/bitarray/varlen"
)

// loadArray returns the bitarray in data: the contents
// of a frame if data is one, or else the raw bits.
func loadArray(c *config, data []byte) (*bitarray.BitArray, *compr.Header, error) {
	if h, _, err := compr.ParseHeader(data); err == nil {
		b, err := compr.Unpack(data)
		return b, &h, err
	}
	return bitarray.FromBytes(data, c.endian()), nil, nil
}

func longest(runs ints.Intervals) int {
	n := 0
	for _, r := range runs {
		n = max(n, r.Len())
	}
	return n
}

// entry point for 'bitz stat ...'
func stat(c *config, w io.Writer, data []byte) error {
	b, h, err := loadArray(c, data)
	if err != nil {
		return err
	}
	set := b.Count(true)
	density := 0.0
	if b.Len() > 0 {
		density = float64(set) / float64(b.Len())
	}
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	if h != nil {
		fmt.Fprintf(tw, "frame:\t%s, %d payload bytes\n", h.Algorithm, h.Payload)
	}
	fmt.Fprintf(tw, "bits:\t%d (%s endian)\n", b.Len(), b.Endian())
	fmt.Fprintf(tw, "set:\t%d (density %.6f)\n", set, density)
	ones := b.Runs(true)
	zeros := ones.Complement(b.Len())
	fmt.Fprintf(tw, "runs of ones:\t%d (longest %d)\n", len(ones), longest(ones))
	fmt.Fprintf(tw, "runs of zeros:\t%d (longest %d)\n", len(zeros), longest(zeros))
	fmt.Fprintf(tw, "hash:\t%016x\n", bitarray.Freeze(b).Hash())

	enc := sparse.Encoder{Logf: c.logf()}
	if _, err := enc.Encode(b); err != nil {
		return err
	}
	for k, s := range enc.Stats {
		if s.Blocks == 0 {
			continue
		}
		kind := "raw"
		if k > 0 {
			kind = fmt.Sprintf("sparse type %d", k)
		}
		fmt.Fprintf(tw, "  %s blocks:\t%d (%d bytes)\n", kind, s.Blocks, s.Bytes)
	}
	fmt.Fprintf(tw, "varlen:\t%d bytes\n", varlen.Size(b.Len()))
	for _, algo := range compr.Names() {
		frame, err := compr.Pack(b, algo)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s:\t%d bytes\n", algo, len(frame))
	}
	return tw.Flush()
}

func init() {
	addApplet(applet{
		name: "stat",
		help: "<file>",
		desc: `show the population and encoded sizes of a file or frame`,
		run: func(c *config, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			out, err := output(c)
			if err != nil {
				return err
			}
			err = stat(c, out, data)
			if cerr := out.Close(); err == nil {
				err = cerr
			}
			return err
		},
	})
}
