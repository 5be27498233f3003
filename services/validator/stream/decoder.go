// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package stream converts a linter's raw stdout chunks into complete lines.
//
// # Description
//
// Process output arrives in arbitrary byte chunks: a chunk may end in the
// middle of a multi-byte character or between the CR and LF of a CRLF pair.
// Decoder carries both kinds of partial state across Write calls so that no
// line is ever split, duplicated, or corrupted by chunk boundaries.
//
// # Thread Safety
//
// A Decoder is owned by exactly one validation run and is NOT safe for
// concurrent use. Create a fresh instance per process invocation.
package stream

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder incrementally decodes process output into complete lines.
//
// State carried between Write calls:
//   - carry: raw bytes of an incomplete character sequence at the end of
//     the previous chunk, prepended to the next chunk before decoding.
//   - fragment: decoded text after the last line terminator, prepended to
//     the next chunk's decoded text before splitting.
type Decoder struct {
	transformer transform.Transformer
	carry       []byte
	fragment    string
	ended       bool
}

// NewDecoder creates a decoder for the given character encoding.
//
// Inputs:
//
//	enc - The source encoding. Nil selects UTF-8.
//
// Outputs:
//
//	*Decoder - A fresh decoder with no carried state.
func NewDecoder(enc encoding.Encoding) *Decoder {
	if enc == nil {
		enc = unicode.UTF8
	}
	return &Decoder{transformer: enc.NewDecoder()}
}

// NewDecoderForCharset creates a decoder for an IANA charset name.
//
// Description:
//
//	Resolves names like "utf-8", "latin1" or "windows-1252" through the
//	IANA index. An empty name selects UTF-8.
//
// Outputs:
//
//	*Decoder - The decoder for the charset.
//	error - Non-nil if the charset is unknown or unsupported.
func NewDecoderForCharset(name string) (*Decoder, error) {
	if name == "" {
		return NewDecoder(nil), nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("looking up charset %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q has no decoder", name)
	}
	return NewDecoder(enc), nil
}

// Write feeds one chunk of raw process output to the decoder.
//
// Description:
//
//	Decodes the chunk (reassembling any character split at the previous
//	chunk boundary), prepends the retained fragment, and splits the result
//	on runs of CR/LF. Consecutive terminators count as a single separator,
//	so blank lines and CRLF pairs never yield empty lines, and a leading
//	terminator run yields no line at all. Text after the last terminator
//	is retained as the new fragment.
//
// Inputs:
//
//	chunk - Raw bytes from the process stdout. May be empty.
//
// Outputs:
//
//	[]string - The complete lines made available by this chunk, in order.
func (d *Decoder) Write(chunk []byte) []string {
	text := d.fragment + d.decode(chunk, false)
	d.fragment = ""
	return d.split(text)
}

// End finishes the stream and releases the trailing fragment.
//
// Description:
//
//	Flushes any carried partial character through the transformer and
//	returns whatever text followed the last terminator. The caller treats
//	it as a final, terminator-less line. Returns false if nothing remains.
//	Safe to call once; subsequent calls return false.
func (d *Decoder) End() (string, bool) {
	if d.ended {
		return "", false
	}
	d.ended = true

	final := d.fragment + d.decode(nil, true)
	d.fragment = ""
	if final == "" {
		return "", false
	}
	return final, true
}

// decode runs carried bytes plus the chunk through the transformer,
// retaining any incomplete trailing sequence for the next call.
func (d *Decoder) decode(chunk []byte, atEOF bool) string {
	src := append(d.carry, chunk...)
	d.carry = nil
	if len(src) == 0 {
		return ""
	}

	var sb strings.Builder
	dst := make([]byte, len(src)*2+16)
	for len(src) > 0 {
		nDst, nSrc, err := d.transformer.Transform(dst, src, atEOF)
		sb.Write(dst[:nDst])
		src = src[nSrc:]

		switch err {
		case nil:
			// All consumed on this pass; loop exits via len(src).
		case transform.ErrShortDst:
			dst = make([]byte, len(dst)*2)
		case transform.ErrShortSrc:
			// Incomplete sequence at the chunk boundary; hold it back.
			d.carry = append([]byte(nil), src...)
			return sb.String()
		default:
			// Undecodable input. x/text decoders substitute replacement
			// characters rather than erroring, so this is a hard stop.
			return sb.String()
		}
	}
	return sb.String()
}

// split separates text on terminator runs, keeping the unterminated tail
// as the new fragment.
func (d *Decoder) split(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.FieldsFunc(text, isTerminator)
	if len(lines) == 0 {
		// Terminators only.
		return nil
	}

	last := rune(text[len(text)-1])
	if !isTerminator(last) {
		d.fragment = lines[len(lines)-1]
		lines = lines[:len(lines)-1]
	}
	return lines
}

func isTerminator(r rune) bool {
	return r == '\r' || r == '\n'
}
