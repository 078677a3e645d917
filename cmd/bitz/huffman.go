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
	"text/tabwriter"

	"github.com/SnellerInc/bitarray"
	"github.com/SnellerInc/bitarray/huffman"
)

// entry point for 'bitz huffman ...'
func huffmanTable(c *config, w io.Writer, data []byte, maxLen int) error {
	freq := make(map[byte]int)
	for _, x := range data {
		freq[x]++
	}
	code, err := huffman.Build(freq, maxLen)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "symbol\tcount\tlength\tcode\n")
	total := 0
	for _, s := range code.Symbols {
		bits, _ := code.Bits(s)
		total += freq[s] * bits.Len()
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", strconv.QuoteRune(rune(s)), freq[s], bits.Len(), bits)
	}
	fmt.Fprintf(tw, "\ncount table:\t%v\n", code.Count)
	fmt.Fprintf(tw, "encoded:\t%d bits (%d bytes in, %d out)\n", total, len(data), (total+7)/8)
	if c.Verbose {
		// decode everything once as a self-check
		dst := bitarray.New(0, c.endian())
		if err := code.Encode(dst, data); err != nil {
			return err
		}
		out, err := huffman.Decode(dst, code.Count, code.Symbols)
		if err != nil {
			return err
		}
		if string(out) != string(data) {
			return fmt.Errorf("huffman round trip mismatch")
		}
		logger.Printf("round trip of %d bytes ok", len(out))
	}
	return tw.Flush()
}

func init() {
	addApplet(applet{
		name: "huffman",
		help: "<file> [max-code-length]",
		desc: `show the canonical Huffman code for the bytes of a file`,
		run: func(c *config, args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return errUsage
			}
			maxLen := 0
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("max code length: %w", err)
				}
				maxLen = n
			}
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			out, err := output(c)
			if err != nil {
				return err
			}
			err = huffmanTable(c, out, data, maxLen)
			if cerr := out.Close(); err == nil {
				err = cerr
			}
			return err
		},
	})
}
