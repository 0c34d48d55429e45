/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * IPP Message decoder
 */

package ippstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Decoder decodes IPP messages, incrementally.
//
// The zero Decoder is ready for use. Decoder has no per-message
// state, so a single Decoder may serve many messages at once.
type Decoder struct {
	Pool     *BufferPool // Scratch buffers, DefaultPool if nil
	MaxDepth int         // Collections nesting limit, DefaultMaxDepth if 0
	Strict   bool        // Reject values under the empty-value tags
	Log      *Logger     // Log for errors and traces, may be nil
}

// errSuspended is returned internally when decoding must stop
// before the message is complete: either there is no data
// available, or the non-blocking decoder has finished
// the next value
var errSuspended = errors.New("suspended")

// decodeStep is the step of decoding of a single wire entry:
//
//	value-tag(1) name-length(2) name value-length(2) value
type decodeStep int

const (
	stepTag        decodeStep = iota // Waiting for the tag
	stepNameLen                      // Waiting for the name length
	stepName                         // Waiting for the name
	stepValueLen                     // Waiting for the value length
	stepValue                        // Waiting for the value
	stepCollection                   // Collection value in progress
)

// decodeState is the Decoder state, saved in the Message between
// calls
type decodeState struct {
	step    decodeStep // Current step
	tag     Tag        // Tag of the entry in flight
	length  int        // Length of the name or value in flight
	partial []byte     // Received part of the field in flight
	child   *Message   // Collection value in progress
	off     int        // Consumed bytes, top-level message only
}

// decodeContext is the context of a single Decode call, shared
// between the top-level message and its nested collections
type decodeContext struct {
	src      io.Reader // Source of bytes
	blocking bool      // Blocking mode
	buf      []byte    // Scratch buffer
	off      *int      // Consumed bytes counter
	field    []byte    // Last field read, for error reporting
}

// Decode continues decoding of the message m, reading bytes from
// src, and returns the new message state.
//
// In blocking mode Decode returns when the message is complete or
// an error occurs. io.EOF before the end of message is the error.
//
// In non-blocking mode Decode also returns when src has no data
// available, indicated by ErrWouldBlock or by a read of zero bytes
// with no error, and after each decoded value. The partially
// received field is saved in the message, and the next call
// continues exactly where the previous one stopped.
// StateData means that the message is complete.
//
// On error, the message enters StateError and keeps attributes,
// decoded so far. Such a message cannot be decoded further.
func (d *Decoder) Decode(src io.Reader, blocking bool, m *Message) (State, error) {
	switch m.state {
	case StateError:
		return StateError, ErrState
	case StateData:
		return StateData, nil
	}

	pool := d.Pool
	if pool == nil {
		pool = DefaultPool
	}

	buf := pool.Acquire()
	defer pool.Release(buf)

	ctx := &decodeContext{
		src:      src,
		blocking: blocking,
		buf:      buf.Data,
		off:      &m.dec.off,
	}

	err := d.decodeMessage(ctx, nil, m, 0)
	switch err {
	case nil:
		d.trace(m)
		fallthrough
	case errSuspended:
		return m.state, nil
	}

	err = fmt.Errorf("%w at 0x%x", err, m.dec.off)
	if d.Log != nil {
		d.Log.Begin().
			Error("IPP decode: %s", err).
			Dump(ctx.field, "last field:").
			Commit()
	}

	return StateError, err
}

// Decode reads the complete message from in
func (m *Message) Decode(in io.Reader) error {
	var d Decoder
	_, err := d.Decode(in, true, m)
	return err
}

// DecodeBytes decodes the complete message from the byte slice
func (m *Message) DecodeBytes(data []byte) error {
	return m.Decode(bytes.NewReader(data))
}

// decodeMessage decodes the top-level message (parent is nil)
// or the collection, nested into the parent
func (d *Decoder) decodeMessage(ctx *decodeContext,
	parent, m *Message, depth int) error {

	err := d.decodeMessageSteps(ctx, parent, m, depth)
	if err != nil && err != errSuspended {
		m.state = StateError
	}

	return err
}

// decodeMessageSteps runs the decoder state machine
func (d *Decoder) decodeMessageSteps(ctx *decodeContext,
	parent, m *Message, depth int) error {

	st := &m.dec

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
			data, err := ctx.fill(st, 8)
			if err != nil {
				return err
			}

			m.Version = Version(binary.BigEndian.Uint16(data[0:2]))
			m.Code = Code(binary.BigEndian.Uint16(data[2:4]))
			m.RequestID = binary.BigEndian.Uint32(data[4:8])
		}

		m.current = -1
		m.prev = len(m.attrs) - 1
		m.curGroup = TagZero
		st.step = stepTag
		m.state = StateAttribute
	}

	for m.state == StateAttribute {
		var err error

		switch st.step {
		case stepTag:
			err = d.decodeTag(ctx, parent, m)
		case stepNameLen:
			err = d.decodeNameLen(ctx, parent, m)
		case stepName:
			err = d.decodeName(ctx, parent, m)
		case stepValueLen:
			err = d.decodeValueLen(ctx, m, depth)
		case stepValue:
			err = d.decodeValue(ctx, parent, m)
		case stepCollection:
			err = d.decodeCollection(ctx, parent, m, depth)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// decodeTag handles the tag byte, that starts every entry
func (d *Decoder) decodeTag(ctx *decodeContext, parent, m *Message) error {
	st := &m.dec

	data, err := ctx.fill(st, 1)
	if err != nil {
		return err
	}

	tag := Tag(data[0])

	switch {
	case tag == TagZero:
		return fmt.Errorf("%w %s", ErrUnexpectedTag, tag)

	case tag.IsDelimiter() && parent != nil:
		return fmt.Errorf("%w %s in collection", ErrUnexpectedTag, tag)

	case tag == TagEnd:
		m.state = StateData

	case tag.IsGroup():
		// Repeated group tag separates groups of the same kind,
		// i.e. jobs in the Get-Jobs response
		if tag == m.curGroup {
			m.AddSeparator()
		}

		if m.current >= 0 {
			m.prev = m.current
		}

		m.curGroup = tag
		m.current = -1

	default:
		st.tag = tag
		st.step = stepNameLen
	}

	return nil
}

// decodeNameLen handles the name length and decides what kind of
// entry is coming: a new attribute, an additional value of the
// current attribute, or a collection delimiter
func (d *Decoder) decodeNameLen(ctx *decodeContext, parent, m *Message) error {
	st := &m.dec

	data, err := ctx.fill(st, 2)
	if err != nil {
		return err
	}

	n := int(binary.BigEndian.Uint16(data))
	tag := st.tag

	if n > MaxLength {
		return fmt.Errorf("%w %d", ErrNameLength, n)
	}

	switch {
	case tag == TagMemberName || tag == TagEndCollection:
		if parent == nil {
			return fmt.Errorf("%w %s outside of collection",
				ErrUnexpectedTag, tag)
		}

		if n != 0 {
			if tag == TagMemberName {
				return fmt.Errorf("%w: name length %d",
					ErrMemberName, n)
			}
			return fmt.Errorf("%w %d in %s", ErrNameLength, n, tag)
		}

		if m.memberWithoutValue() {
			return fmt.Errorf("%w: member %q",
				ErrNoValue, m.attrs[m.current].Name)
		}

		// The member name comes as a value
		if tag == TagMemberName {
			m.Add(&Attribute{Group: m.curGroup})
		}

		st.step = stepValueLen

	case n == 0:
		if m.current < 0 {
			return ErrNoAttribute
		}

		attr := m.attrs[m.current]
		if !attr.ValueTag.setCompatible(tag) {
			return fmt.Errorf("%w: %s value in %s attribute %q",
				ErrSetTag, tag, attr.ValueTag, attr.Name)
		}

		if attr.ValueTag == TagZero {
			attr.ValueTag = tag
		}

		st.step = stepValueLen

	default:
		if parent == nil && m.curGroup == TagZero {
			return ErrNoGroup
		}

		st.length = n
		st.step = stepName
	}

	return nil
}

// decodeName handles the name of a new attribute
func (d *Decoder) decodeName(ctx *decodeContext, parent, m *Message) error {
	st := &m.dec

	data, err := ctx.fill(st, st.length)
	if err != nil {
		return err
	}

	if parent != nil && m.memberWithoutValue() {
		return fmt.Errorf("%w: member %q",
			ErrNoValue, m.attrs[m.current].Name)
	}

	m.Add(&Attribute{
		Name:     string(data),
		Group:    m.curGroup,
		ValueTag: st.tag,
	})

	st.step = stepValueLen

	return nil
}

// decodeValueLen handles the value length
func (d *Decoder) decodeValueLen(ctx *decodeContext, m *Message, depth int) error {
	st := &m.dec

	data, err := ctx.fill(st, 2)
	if err != nil {
		return err
	}

	n := int(binary.BigEndian.Uint16(data))
	tag := st.tag

	if n > MaxLength {
		return fmt.Errorf("%w %d", ErrValueLength, n)
	}

	switch tag.Kind() {
	case KindEndCollection:
		if n != 0 {
			return fmt.Errorf("%w %d in %s", ErrValueLength, n, tag)
		}

		m.state = StateData

	case KindBeginCollection:
		// Members follow, the value itself must be empty
		if n != 0 {
			return fmt.Errorf("%w %d in %s", ErrValueLength, n, tag)
		}

		if depth+1 > d.maxDepth() {
			return fmt.Errorf("%w: more than %d levels",
				ErrTooDeep, d.maxDepth())
		}

		st.child = NewMessage()
		st.step = stepCollection

	default:
		st.length = n
		st.step = stepValue
	}

	return nil
}

// decodeValue handles the value payload
func (d *Decoder) decodeValue(ctx *decodeContext, parent, m *Message) error {
	st := &m.dec

	data, err := ctx.fill(st, st.length)
	if err != nil {
		return err
	}

	attr := m.attrs[m.current]
	tag := st.tag
	kind := tag.Kind()

	switch {
	case kind == KindMemberName:
		if len(data) == 0 {
			return fmt.Errorf("%w: empty name", ErrMemberName)
		}

		attr.Name = string(data)
		st.step = stepTag

		return nil

	case tag.IsEmptyValue() && tag == attr.ValueTag:
		// Some peers send text under the empty-value tags
		if len(data) != 0 {
			if d.Strict {
				return fmt.Errorf("%w %d in %s",
					ErrValueLength, len(data), tag)
			}

			attr.reclassifyAsText()
			kind = KindString
		}

	case tag.IsEmptyValue():
		// no-value within a set of strings
		kind = KindString
	}

	v, err := parseValue(kind, data)
	if err != nil {
		return err
	}

	attr.Values = append(attr.Values, v)
	st.step = stepTag

	return ctx.yield(parent)
}

// decodeCollection continues decoding of the nested collection
func (d *Decoder) decodeCollection(ctx *decodeContext,
	parent, m *Message, depth int) error {

	st := &m.dec

	err := d.decodeMessage(ctx, m, st.child, depth+1)
	if err != nil {
		return err
	}

	attr := m.attrs[m.current]
	attr.Values = append(attr.Values, Collection{st.child})
	st.child = nil
	st.step = stepTag

	return ctx.yield(parent)
}

// maxDepth returns the effective collections nesting limit
func (d *Decoder) maxDepth() int {
	if d.MaxDepth > 0 {
		return d.MaxDepth
	}
	return DefaultMaxDepth
}

// trace writes the complete message into the log
func (d *Decoder) trace(m *Message) {
	if d.Log == nil || !d.Log.Enabled(LogTraceIPP) {
		return
	}

	f := NewFormatter()
	f.SetIndent(2)
	f.FmtMessage(m)

	msg := d.Log.Begin()
	msg.Trace(LogTraceIPP, '<', "IPP message decoded, %d bytes",
		m.dec.off)
	f.WriteTo(msg)
	msg.Commit()
}

// memberWithoutValue reports whether the current collection member
// didn't receive its value yet
func (m *Message) memberWithoutValue() bool {
	return m.current >= 0 && len(m.attrs[m.current].Values) == 0
}

// reclassifyAsText converts the attribute with the empty-value tag
// into the text attribute. Previously received empty values become
// empty strings
func (attr *Attribute) reclassifyAsText() {
	attr.ValueTag = TagText
	for i := range attr.Values {
		attr.Values[i] = String("")
	}
}

// fill returns exactly n bytes of the next field.
//
// Bytes of the field, received by previous calls, are taken from
// st.partial. If source runs out of data in non-blocking mode, the
// received part is saved back into st.partial and errSuspended
// is returned.
//
// The returned slice is valid until the next fill call
func (ctx *decodeContext) fill(st *decodeState, n int) ([]byte, error) {
	buf := ctx.buf[:n]
	have := copy(buf, st.partial)
	empty := 0

	for have < n {
		cnt, err := ctx.src.Read(buf[have:])
		have += cnt
		*ctx.off += cnt

		switch {
		case have == n:
			continue

		case err == nil && cnt > 0:
			empty = 0
			continue

		case errors.Is(err, io.EOF):
			ctx.field = buf[:have]
			return nil, ErrTruncated

		case err != nil && !errors.Is(err, ErrWouldBlock):
			ctx.field = buf[:have]
			return nil, err

		case !ctx.blocking:
			st.partial = append(st.partial[:0], buf[:have]...)
			return nil, errSuspended
		}

		if cnt > 0 {
			empty = 0
		} else if empty++; empty >= emptyReadsLimit {
			ctx.field = buf[:have]
			return nil, io.ErrNoProgress
		}
	}

	st.partial = st.partial[:0]
	ctx.field = buf

	return buf, nil
}

// yield stops the non-blocking top-level decoder after each value
func (ctx *decodeContext) yield(parent *Message) error {
	if parent == nil && !ctx.blocking {
		return errSuspended
	}
	return nil
}
