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

package bitarray

import "errors"

// Errors returned by bitarray operations.
// Codec packages wrap these with additional
// context; use errors.Is to test for them.
var (
	// ErrReadOnly is returned when a mutation is
	// attempted on a read-only or frozen buffer.
	ErrReadOnly = errors.New("bitarray: buffer is read-only")
	// ErrBufferBusy is returned when a structural
	// mutation is attempted on a buffer that has
	// live exports or that does not own its memory.
	ErrBufferBusy = errors.New("bitarray: buffer is exported or shared")
	// ErrInvalidBuffer is returned for malformed
	// import requests and malformed flat encodings.
	ErrInvalidBuffer = errors.New("bitarray: invalid buffer")
	// ErrTruncated is returned when a stream ends
	// before its declared length is satisfied.
	ErrTruncated = errors.New("bitarray: truncated stream")
	// ErrUnderflow is returned when a decoder runs
	// out of input in the middle of a unit.
	ErrUnderflow = errors.New("bitarray: stream underflow")
	// ErrOverflow is returned when an integer does
	// not fit the requested number of bits.
	ErrOverflow = errors.New("bitarray: integer overflow")
	// ErrLengthMismatch is returned by binary
	// operations on buffers of different lengths.
	ErrLengthMismatch = errors.New("bitarray: length mismatch")
	// ErrSyntax is returned when parsing text.
	ErrSyntax = errors.New("bitarray: invalid syntax")
	// ErrInvalidArgument is returned for arguments
	// outside the domain of an operation.
	ErrInvalidArgument = errors.New("bitarray: invalid argument")
)
