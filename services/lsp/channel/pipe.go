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
	"io"
	"sync"
)

// pipeEnd is one side of an in-memory channel pair.
type pipeEnd struct {
	in  <-chan []byte
	out chan<- []byte

	// closed is shared by both ends: closing either side tears down the pair.
	closed    chan struct{}
	closeOnce *sync.Once
}

// Pipe returns two connected in-memory channels.
//
// Description:
//
//	A message written to one end is read from the other. Writes block
//	until the peer reads, the same way net.Pipe behaves. Closing either
//	end closes both: reads return io.EOF and writes return ErrClosed.
//
// Outputs:
//
//	Channel, Channel - The two ends of the pipe
func Pipe() (Channel, Channel) {
	ab := make(chan []byte)
	ba := make(chan []byte)
	closed := make(chan struct{})
	once := &sync.Once{}

	a := &pipeEnd{in: ba, out: ab, closed: closed, closeOnce: once}
	b := &pipeEnd{in: ab, out: ba, closed: closed, closeOnce: once}
	return a, b
}

// ReadMessage implements Channel.
func (p *pipeEnd) ReadMessage() ([]byte, error) {
	select {
	case msg := <-p.in:
		return msg, nil
	case <-p.closed:
		return nil, io.EOF
	}
}

// WriteMessage implements Channel. The message is copied.
func (p *pipeEnd) WriteMessage(msg []byte) error {
	buf := make([]byte, len(msg))
	copy(buf, msg)

	select {
	case <-p.closed:
		return ErrClosed
	default:
	}

	select {
	case p.out <- buf:
		return nil
	case <-p.closed:
		return ErrClosed
	}
}

// Close implements Channel.
func (p *pipeEnd) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}
