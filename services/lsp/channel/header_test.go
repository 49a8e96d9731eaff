// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package channel

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestHeaderChannel_WriteMessage(t *testing.T) {
	t.Run("writes Content-Length header and body", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewHeaderChannel(nil, &buf)

		msg := `{"jsonrpc":"2.0","id":1,"method":"shutdown"}`
		if err := c.WriteMessage([]byte(msg)); err != nil {
			t.Fatalf("WriteMessage: %v", err)
		}

		want := fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(msg), msg)
		if buf.String() != want {
			t.Errorf("got %q, want %q", buf.String(), want)
		}
	})

	t.Run("returns error without writer", func(t *testing.T) {
		c := NewHeaderChannel(strings.NewReader(""), nil)
		if err := c.WriteMessage([]byte("{}")); err == nil {
			t.Error("expected error without writer")
		}
	})
}

func TestHeaderChannel_ReadMessage(t *testing.T) {
	t.Run("reads valid message", func(t *testing.T) {
		msg := `{"jsonrpc":"2.0","id":1,"result":null}`
		input := fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(msg), msg)

		c := NewHeaderChannel(strings.NewReader(input), nil)

		body, err := c.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage: %v", err)
		}
		if string(body) != msg {
			t.Errorf("got %s, want %s", body, msg)
		}
	})

	t.Run("handles multiple headers and case", func(t *testing.T) {
		msg := `{"jsonrpc":"2.0","id":1,"result":null}`
		input := fmt.Sprintf("content-length: %d\r\nContent-Type: application/vscode-jsonrpc; charset=utf-8\r\n\r\n%s", len(msg), msg)

		c := NewHeaderChannel(strings.NewReader(input), nil)

		body, err := c.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage: %v", err)
		}
		if string(body) != msg {
			t.Errorf("got %s, want %s", body, msg)
		}
	})

	t.Run("reads consecutive messages", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewHeaderChannel(nil, &buf)
		for _, m := range []string{`{"a":1}`, `{"b":2}`, `{"c":3}`} {
			if err := w.WriteMessage([]byte(m)); err != nil {
				t.Fatalf("WriteMessage: %v", err)
			}
		}

		r := NewHeaderChannel(&buf, nil)
		for _, want := range []string{`{"a":1}`, `{"b":2}`, `{"c":3}`} {
			got, err := r.ReadMessage()
			if err != nil {
				t.Fatalf("ReadMessage: %v", err)
			}
			if string(got) != want {
				t.Errorf("got %s, want %s", got, want)
			}
		}
		if _, err := r.ReadMessage(); err != io.EOF {
			t.Errorf("expected EOF after last message, got %v", err)
		}
	})

	t.Run("returns error for missing Content-Length", func(t *testing.T) {
		c := NewHeaderChannel(strings.NewReader("\r\n{\"test\":true}"), nil)
		if _, err := c.ReadMessage(); err == nil {
			t.Error("expected error for missing Content-Length")
		}
	})

	t.Run("returns error for negative Content-Length", func(t *testing.T) {
		c := NewHeaderChannel(strings.NewReader("Content-Length: -4\r\n\r\n"), nil)
		if _, err := c.ReadMessage(); err == nil {
			t.Error("expected error for negative Content-Length")
		}
	})

	t.Run("returns error for oversized Content-Length", func(t *testing.T) {
		input := fmt.Sprintf("Content-Length: %d\r\n\r\n", maxContentLength+1)
		c := NewHeaderChannel(strings.NewReader(input), nil)
		if _, err := c.ReadMessage(); err == nil {
			t.Error("expected error for oversized Content-Length")
		}
	})

	t.Run("returns error for malformed header line", func(t *testing.T) {
		c := NewHeaderChannel(strings.NewReader("garbage\r\n\r\n"), nil)
		if _, err := c.ReadMessage(); err == nil {
			t.Error("expected error for malformed header")
		}
	})

	t.Run("returns EOF for empty input", func(t *testing.T) {
		c := NewHeaderChannel(strings.NewReader(""), nil)
		if _, err := c.ReadMessage(); err != io.EOF {
			t.Errorf("expected EOF, got %v", err)
		}
	})

	t.Run("returns unexpected EOF for truncated headers", func(t *testing.T) {
		c := NewHeaderChannel(strings.NewReader("Content-Length: 10\r\n"), nil)
		if _, err := c.ReadMessage(); err != io.ErrUnexpectedEOF {
			t.Errorf("expected ErrUnexpectedEOF, got %v", err)
		}
	})

	t.Run("returns error for truncated body", func(t *testing.T) {
		c := NewHeaderChannel(strings.NewReader("Content-Length: 10\r\n\r\n{}"), nil)
		if _, err := c.ReadMessage(); err == nil {
			t.Error("expected error for truncated body")
		}
	})
}

type closeRecorder struct {
	bytes.Buffer
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestHeaderChannel_Close(t *testing.T) {
	r := &closeRecorder{}
	w := &closeRecorder{}
	c := NewHeaderChannel(r, w)

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if r.closed != 1 || w.closed != 1 {
		t.Errorf("closed reader %d times, writer %d times; want 1 and 1", r.closed, w.closed)
	}
}
