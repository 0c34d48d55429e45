/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Wire format helpers for tests
 */

package ippstream

import (
	"encoding/binary"
	"io"
)

// wire builds IPP messages byte by byte
type wire []byte

// header appends the message header
func (w wire) header(version, code uint16, id uint32) wire {
	w = binary.BigEndian.AppendUint16(w, version)
	w = binary.BigEndian.AppendUint16(w, code)
	return binary.BigEndian.AppendUint32(w, id)
}

// tag appends a single tag byte
func (w wire) tag(tag Tag) wire {
	return append(w, byte(tag))
}

// entry appends tag name-length name value-length value
func (w wire) entry(tag Tag, name string, value []byte) wire {
	w = append(w, byte(tag))
	w = binary.BigEndian.AppendUint16(w, uint16(len(name)))
	w = append(w, name...)
	w = binary.BigEndian.AppendUint16(w, uint16(len(value)))
	return append(w, value...)
}

// member appends the member-name entry
func (w wire) member(name string) wire {
	return w.entry(TagMemberName, "", []byte(name))
}

// endCollection appends the end-of-collection entry
func (w wire) endCollection() wire {
	return w.entry(TagEndCollection, "", nil)
}

// raw appends raw bytes
func (w wire) raw(data ...byte) wire {
	return append(w, data...)
}

// be32 returns 4-byte big endian representation of v
func be32(v int32) []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(v))
}

// printJobRequest returns the minimal Print-Job request
func printJobRequest() []byte {
	return wire(nil).
		header(0x0101, 0x0002, 1).
		tag(TagOperationGroup).
		entry(TagCharset, "attributes-charset", []byte("utf-8")).
		entry(TagLanguage, "attributes-natural-language", []byte("en")).
		tag(TagEnd)
}

// chunkReader returns data by chunks of the specified size.
// In non-blocking mode every chunk is followed by ErrWouldBlock
type chunkReader struct {
	data     []byte // Remaining data
	chunk    int    // Chunk size
	blocking bool   // Never return ErrWouldBlock
	block    bool   // Next read would block
	reads    int    // Count of Read calls
}

// Read implements io.Reader interface
func (r *chunkReader) Read(buf []byte) (int, error) {
	r.reads++

	if r.block {
		r.block = false
		return 0, ErrWouldBlock
	}

	if len(r.data) == 0 {
		return 0, io.EOF
	}

	if len(buf) > r.chunk {
		buf = buf[:r.chunk]
	}

	n := copy(buf, r.data)
	r.data = r.data[n:]
	r.block = !r.blocking

	return n, nil
}

// emptyReader always returns 0, nil
type emptyReader struct{}

// Read implements io.Reader interface
func (emptyReader) Read([]byte) (int, error) {
	return 0, nil
}

// shortWriter accepts at most limit bytes per Write
type shortWriter struct {
	limit int
}

// Write implements io.Writer interface
func (w shortWriter) Write(data []byte) (int, error) {
	if len(data) > w.limit {
		return w.limit, nil
	}
	return len(data), nil
}

// decodeNonBlocking decodes data in non-blocking mode by chunks,
// returning the number of Decode calls
func decodeNonBlocking(d *Decoder, data []byte, chunk int,
	m *Message) (int, error) {

	src := &chunkReader{data: data, chunk: chunk}
	calls := 0

	for {
		state, err := d.Decode(src, false, m)
		calls++

		if err != nil || state == StateData {
			return calls, err
		}

		if calls > 10*len(data)+10 {
			return calls, io.ErrNoProgress
		}
	}
}
