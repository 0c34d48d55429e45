/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * IPP Message encoder
 */

package ippstream

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Encoder encodes IPP messages, incrementally.
//
// The zero Encoder is ready for use. Encoder has no per-message
// state, so a single Encoder may serve many messages at once.
type Encoder struct {
	Pool     *BufferPool // Scratch buffers, DefaultPool if nil
	MaxDepth int         // Collections nesting limit, DefaultMaxDepth if 0
	Log      *Logger     // Log for errors and traces, may be nil
}

// encodeContext is the context of a single Encode call, shared
// between the top-level message and its nested collections
type encodeContext struct {
	dst      io.Writer // Destination of bytes
	blocking bool      // Blocking mode
	buf      []byte    // Output buffer, BufSize capacity
	cnt      int       // Bytes written to dst
}

// Encode continues encoding of the message m into dst, and returns
// the new message state.
//
// Output is collected in a scratch buffer and written to dst only
// on field boundaries. dst is expected to accept everything it is
// given or to fail.
//
// In blocking mode Encode writes the whole message. In non-blocking
// mode it writes one attribute per call and returns StateAttribute,
// until all attributes are written. The call that writes the last
// attribute also writes the end-of-attributes tag and returns
// StateData.
//
// On error, the message enters StateError.
func (e *Encoder) Encode(dst io.Writer, blocking bool, m *Message) (State, error) {
	switch m.state {
	case StateError:
		return StateError, ErrState
	case StateData:
		return StateData, nil
	}

	pool := e.Pool
	if pool == nil {
		pool = DefaultPool
	}

	buf := pool.Acquire()
	defer pool.Release(buf)

	ctx := &encodeContext{
		dst:      dst,
		blocking: blocking,
		buf:      buf.Data[:0],
	}

	err := e.encodeMessage(ctx, nil, m, 0)
	if err == nil {
		err = ctx.flush()
	}

	if err != nil {
		m.state = StateError
		err = fmt.Errorf("%w at 0x%x", err, ctx.cnt+len(ctx.buf))
		if e.Log != nil {
			e.Log.Error("IPP encode: %s", err)
		}
		return StateError, err
	}

	if m.state == StateData {
		e.trace(m)
	}

	return m.state, nil
}

// Encode writes the complete message into out. The message state
// is reset before encoding, so Encode may be called repeatedly
func (m *Message) Encode(out io.Writer) error {
	var e Encoder
	m.Rewind()
	_, err := e.Encode(out, true, m)
	return err
}

// EncodeBytes encodes the complete message into a byte slice
func (m *Message) EncodeBytes() ([]byte, error) {
	var buf bytes.Buffer
	err := m.Encode(&buf)
	return buf.Bytes(), err
}

// encodeMessage encodes the top-level message (parent is nil)
// or the collection, nested into the parent
func (e *Encoder) encodeMessage(ctx *encodeContext,
	parent, m *Message, depth int) error {

	switch m.state {
	case StateError:
		return ErrState

	case StateData:
		return nil

	case StateIdle:
		m.state = StateHeader
		fallthrough

	case StateHeader:
		// Collections have no header
		if parent == nil {
			ctx.buf = binary.BigEndian.AppendUint16(ctx.buf, uint16(m.Version))
			ctx.buf = binary.BigEndian.AppendUint16(ctx.buf, uint16(m.Code))
			ctx.buf = binary.BigEndian.AppendUint32(ctx.buf, m.RequestID)
		}

		m.current = 0
		m.curGroup = TagZero
		m.state = StateAttribute
	}

	for m.current < len(m.attrs) {
		attr := m.attrs[m.current]
		m.current++

		// Group tags are written on group change. Separators switch
		// to TagZero, so the next attribute writes its group again
		if parent == nil {
			switch {
			case attr.Group != TagZero && !attr.Group.IsGroup():
				return fmt.Errorf("%w %s: not a group",
					ErrUnexpectedTag, attr.Group)

			case attr.Group != m.curGroup:
				m.curGroup = attr.Group
				if attr.Group == TagZero {
					continue
				}

				if err := ctx.reserve(1); err != nil {
					return err
				}
				ctx.buf = append(ctx.buf, byte(attr.Group))

			case attr.Group == TagZero:
				continue
			}
		} else if attr.IsSeparator() {
			continue
		}

		err := e.encodeAttr(ctx, parent, m, attr, depth)
		if err == nil {
			err = ctx.flush()
		}

		if err != nil {
			return err
		}

		if parent == nil && !ctx.blocking {
			break
		}
	}

	if m.current < len(m.attrs) {
		return nil
	}

	if parent == nil {
		if err := ctx.reserve(1); err != nil {
			return err
		}
		ctx.buf = append(ctx.buf, byte(TagEnd))
	} else {
		if err := ctx.reserve(5); err != nil {
			return err
		}
		ctx.buf = append(ctx.buf, byte(TagEndCollection), 0, 0, 0, 0)
	}

	m.state = StateData

	return ctx.flush()
}

// encodeAttr encodes a single attribute of the message m.
//
// Top-level attributes start with:
//
//	value-tag(1) name-length(2) name
//
// Collection members start with the member-name entry:
//
//	0x4a 0x00 0x00 name-length(2) name value-tag(1) 0x00 0x00
//
// Each value then follows as value-length(2) value, and every
// value but the first is preceded by value-tag(1) 0x00 0x00
func (e *Encoder) encodeAttr(ctx *encodeContext,
	parent, m *Message, attr *Attribute, depth int) error {

	if attr.Name == "" {
		return ErrNoName
	}

	if len(attr.Values) == 0 {
		return fmt.Errorf("%w: %q", ErrNoValue, attr.Name)
	}

	tag, err := attr.wireTag(attr.Values[0])
	if err != nil {
		return fmt.Errorf("%q: %w", attr.Name, err)
	}

	n := len(attr.Name)

	if parent == nil {
		if 3+n > BufSize {
			return fmt.Errorf("%w %d", ErrNameLength, n)
		}

		if err = ctx.reserve(3 + n); err != nil {
			return err
		}

		ctx.buf = append(ctx.buf, byte(tag))
		ctx.buf = binary.BigEndian.AppendUint16(ctx.buf, uint16(n))
		ctx.buf = append(ctx.buf, attr.Name...)
	} else {
		if 8+n > BufSize {
			return fmt.Errorf("%w %d", ErrNameLength, n)
		}

		if err = ctx.reserve(8 + n); err != nil {
			return err
		}

		ctx.buf = append(ctx.buf, byte(TagMemberName), 0, 0)
		ctx.buf = binary.BigEndian.AppendUint16(ctx.buf, uint16(n))
		ctx.buf = append(ctx.buf, attr.Name...)
		ctx.buf = append(ctx.buf, byte(tag), 0, 0)
	}

	for i, v := range attr.Values {
		if i > 0 {
			if tag, err = attr.wireTag(v); err != nil {
				return fmt.Errorf("%q: %w", attr.Name, err)
			}

			if err = ctx.reserve(3); err != nil {
				return err
			}

			ctx.buf = append(ctx.buf, byte(tag), 0, 0)
		}

		if c, ok := v.(Collection); ok {
			err = e.encodeCollection(ctx, m, c, depth)
		} else {
			err = ctx.putValue(v)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// encodeCollection writes the empty begCollection value and
// the collection members, nested into the message m
func (e *Encoder) encodeCollection(ctx *encodeContext,
	m *Message, c Collection, depth int) error {

	if c.Msg == nil {
		return fmt.Errorf("%w: nil collection", ErrValueType)
	}

	if depth+1 > e.maxDepth() {
		return fmt.Errorf("%w: more than %d levels",
			ErrTooDeep, e.maxDepth())
	}

	if err := ctx.reserve(2); err != nil {
		return err
	}

	ctx.buf = append(ctx.buf, 0, 0)
	if err := ctx.flush(); err != nil {
		return err
	}

	// The same collection may be written several times
	c.Msg.state = StateIdle

	return e.encodeMessage(ctx, m, c.Msg, depth+1)
}

// maxDepth returns the effective collections nesting limit
func (e *Encoder) maxDepth() int {
	if e.MaxDepth > 0 {
		return e.MaxDepth
	}
	return DefaultMaxDepth
}

// trace writes the complete message into the log
func (e *Encoder) trace(m *Message) {
	if e.Log == nil || !e.Log.Enabled(LogTraceIPP) {
		return
	}

	f := NewFormatter()
	f.SetIndent(2)
	f.FmtMessage(m)

	msg := e.Log.Begin()
	msg.Trace(LogTraceIPP, '>', "IPP message encoded, %d bytes",
		m.Length())
	f.WriteTo(msg)
	msg.Commit()
}

// putValue writes value-length(2) and value payload
func (ctx *encodeContext) putValue(v Value) error {
	n := v.payloadLen()
	if n > MaxLength {
		return fmt.Errorf("%w %d", ErrValueLength, n)
	}

	if err := ctx.reserve(2 + n); err != nil {
		return err
	}

	ctx.buf = binary.BigEndian.AppendUint16(ctx.buf, uint16(n))
	ctx.buf = v.appendPayload(ctx.buf)

	return nil
}

// reserve makes room for n bytes, flushing the buffer if needed
func (ctx *encodeContext) reserve(n int) error {
	if len(ctx.buf)+n > cap(ctx.buf) {
		return ctx.flush()
	}
	return nil
}

// flush writes buffered bytes to the destination
func (ctx *encodeContext) flush() error {
	if len(ctx.buf) == 0 {
		return nil
	}

	n, err := ctx.dst.Write(ctx.buf)
	ctx.cnt += n

	if err == nil && n < len(ctx.buf) {
		err = io.ErrShortWrite
	}

	ctx.buf = ctx.buf[:0]

	return err
}
