// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stream

import (
	"reflect"
	"testing"
)

// collect feeds the input to a fresh decoder in chunks of the given size
// and returns every line produced, including the final fragment.
func collect(t *testing.T, input string, chunkSize int) []string {
	t.Helper()

	d := NewDecoder(nil)
	var lines []string

	data := []byte(input)
	for start := 0; start < len(data); start += chunkSize {
		end := start + chunkSize
		if end > len(data) {
			end = len(data)
		}
		lines = append(lines, d.Write(data[start:end])...)
	}
	if frag, ok := d.End(); ok {
		lines = append(lines, frag)
	}
	return lines
}

func TestDecoder_SingleChunk(t *testing.T) {
	d := NewDecoder(nil)

	lines := d.Write([]byte("one\ntwo\nthree"))
	want := []string{"one", "two"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Write() = %v, want %v", lines, want)
	}

	frag, ok := d.End()
	if !ok || frag != "three" {
		t.Errorf("End() = %q, %v, want %q, true", frag, ok, "three")
	}
}

func TestDecoder_ChunkSizeInvariance(t *testing.T) {
	input := "alpha\r\nbeta\rgamma\n\ndelta\r\n\r\nepsilon"
	want := []string{"alpha", "beta", "gamma", "delta", "epsilon"}

	for size := 1; size <= len(input)+1; size++ {
		got := collect(t, input, size)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("chunk size %d: lines = %v, want %v", size, got, want)
		}
	}
}

func TestDecoder_CRLFSplitAcrossChunks(t *testing.T) {
	d := NewDecoder(nil)

	lines := d.Write([]byte("first\r"))
	if !reflect.DeepEqual(lines, []string{"first"}) {
		t.Fatalf("after CR: lines = %v, want [first]", lines)
	}

	// The LF that completes the CRLF pair must not produce an empty line.
	lines = d.Write([]byte("\nsecond\n"))
	if !reflect.DeepEqual(lines, []string{"second"}) {
		t.Errorf("after LF: lines = %v, want [second]", lines)
	}

	if frag, ok := d.End(); ok {
		t.Errorf("End() = %q, want no fragment", frag)
	}
}

func TestDecoder_MultiByteSplitAcrossChunks(t *testing.T) {
	// "héllo wörld" has two-byte sequences; split inside each of them.
	input := "héllo\nwörld"
	want := []string{"héllo", "wörld"}

	for size := 1; size <= 4; size++ {
		got := collect(t, input, size)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("chunk size %d: lines = %v, want %v", size, got, want)
		}
	}
}

func TestDecoder_TerminatorsOnly(t *testing.T) {
	d := NewDecoder(nil)

	if lines := d.Write([]byte("\r\n\n\r\r\n")); len(lines) != 0 {
		t.Errorf("terminator-only chunk produced lines: %v", lines)
	}
	if frag, ok := d.End(); ok {
		t.Errorf("End() = %q, want no fragment", frag)
	}
}

func TestDecoder_LeadingTerminators(t *testing.T) {
	d := NewDecoder(nil)

	lines := d.Write([]byte("\n\nhello\n"))
	if !reflect.DeepEqual(lines, []string{"hello"}) {
		t.Errorf("lines = %v, want [hello]", lines)
	}
}

func TestDecoder_EmptyChunk(t *testing.T) {
	d := NewDecoder(nil)

	if lines := d.Write(nil); len(lines) != 0 {
		t.Errorf("empty chunk produced lines: %v", lines)
	}
	d.Write([]byte("tail"))
	if lines := d.Write(nil); len(lines) != 0 {
		t.Errorf("empty chunk after fragment produced lines: %v", lines)
	}
	if frag, ok := d.End(); !ok || frag != "tail" {
		t.Errorf("End() = %q, %v, want %q, true", frag, ok, "tail")
	}
}

func TestDecoder_EndIsOneShot(t *testing.T) {
	d := NewDecoder(nil)
	d.Write([]byte("leftover"))

	if frag, ok := d.End(); !ok || frag != "leftover" {
		t.Fatalf("first End() = %q, %v", frag, ok)
	}
	if frag, ok := d.End(); ok {
		t.Errorf("second End() = %q, want nothing", frag)
	}
}

func TestNewDecoderForCharset(t *testing.T) {
	tests := []struct {
		name    string
		charset string
		wantErr bool
	}{
		{"default", "", false},
		{"utf-8", "utf-8", false},
		{"latin1", "iso-8859-1", false},
		{"unknown", "no-such-charset", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDecoderForCharset(tt.charset)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewDecoderForCharset: %v", err)
			}
			if d == nil {
				t.Fatal("decoder is nil")
			}
		})
	}
}

func TestDecoder_Latin1(t *testing.T) {
	d, err := NewDecoderForCharset("iso-8859-1")
	if err != nil {
		t.Fatalf("NewDecoderForCharset: %v", err)
	}

	// 0xE9 is é in latin1.
	lines := d.Write([]byte{'c', 'a', 'f', 0xE9, '\n'})
	if !reflect.DeepEqual(lines, []string{"café"}) {
		t.Errorf("lines = %v, want [café]", lines)
	}
}
