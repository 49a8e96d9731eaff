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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// maxContentLength bounds a single message body. Language servers can send
// large semantic token or diagnostic payloads, but nothing near this size.
const maxContentLength = 64 << 20

// =============================================================================
// HEADER CHANNEL
// =============================================================================

// HeaderChannel implements the LSP base protocol framing.
//
// Description:
//
//	Each message is preceded by a header block terminated by an empty
//	line. Only Content-Length is interpreted; other headers such as
//	Content-Type are accepted and ignored.
//
//	    Content-Length: 52\r\n
//	    \r\n
//	    {"jsonrpc":"2.0","id":1,"method":"shutdown"}
//
// Thread Safety:
//
//	Writes are serialized internally. Reads must come from one goroutine.
type HeaderChannel struct {
	reader  *bufio.Reader
	writer  io.Writer
	wcloser io.Closer
	rcloser io.Closer
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewHeaderChannel creates a Content-Length framed channel.
//
// Description:
//
//	Reads frames from r (e.g., a server's stdout) and writes frames to w
//	(e.g., its stdin). Close closes w and, if r is an io.Closer, r as well.
//
// Inputs:
//
//	r - Source of inbound frames. May be nil for write-only use in tests.
//	w - Sink for outbound frames. May be nil for read-only use in tests.
//
// Outputs:
//
//	*HeaderChannel - The framed channel
func NewHeaderChannel(r io.Reader, w io.Writer) *HeaderChannel {
	c := &HeaderChannel{writer: w}
	if r != nil {
		c.reader = bufio.NewReader(r)
		c.rcloser, _ = r.(io.Closer)
	}
	c.wcloser, _ = w.(io.Closer)
	return c
}

// ReadMessage reads a single framed message body.
func (c *HeaderChannel) ReadMessage() ([]byte, error) {
	if c.reader == nil {
		return nil, fmt.Errorf("no reader configured")
	}

	contentLength := -1
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" && contentLength < 0 {
				return nil, io.EOF
			}
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		line = strings.TrimSpace(line)

		// Empty line marks end of headers
		if line == "" {
			if contentLength < 0 {
				return nil, fmt.Errorf("missing Content-Length header")
			}
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header line %q", line)
		}
		if !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		value = strings.TrimSpace(value)
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid Content-Length value %q: %w", value, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("negative Content-Length: %d", n)
		}
		if n > maxContentLength {
			return nil, fmt.Errorf("Content-Length %d exceeds limit %d", n, maxContentLength)
		}
		contentLength = n
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(c.reader, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// WriteMessage writes msg with a Content-Length header.
func (c *HeaderChannel) WriteMessage(msg []byte) error {
	if c.writer == nil {
		return fmt.Errorf("no writer configured")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	header := "Content-Length: " + strconv.Itoa(len(msg)) + "\r\n\r\n"
	if _, err := io.WriteString(c.writer, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := c.writer.Write(msg); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// Close closes the writer, then the reader. It is idempotent.
//
// Only the writer's close error is reported: when r and w are the same
// connection the second close always fails.
func (c *HeaderChannel) Close() error {
	c.closeOnce.Do(func() {
		if c.wcloser != nil {
			c.closeErr = c.wcloser.Close()
		}
		if c.rcloser != nil {
			_ = c.rcloser.Close()
		}
	})
	return c.closeErr
}
