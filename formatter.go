/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Message formatter (pretty-printer)
 */

package ippstream

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// FormatterIndentShift is the number of space characters
// per indentation level
const FormatterIndentShift = 4

// Formatter formats messages and attributes for pretty-printing
type Formatter struct {
	indent     int          // Indentation level
	userIndent int          // User-settable indent
	buf        bytes.Buffer // Output buffer
}

// NewFormatter returns a new Formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Reset resets the formatter.
func (f *Formatter) Reset() {
	f.buf.Reset()
	f.indent = 0
}

// SetIndent configures indentation. If parameter is greater that
// zero, the specified amount of white space will prepended to each
// non-empty output line.
func (f *Formatter) SetIndent(n int) {
	f.userIndent = 0
	if n > 0 {
		f.userIndent = n
	}
}

// Bytes returns formatted text as a byte slice.
func (f *Formatter) Bytes() []byte {
	return f.buf.Bytes()
}

// String returns formatted text as a string.
func (f *Formatter) String() string {
	return f.buf.String()
}

// WriteTo writes formatted text to w.
// It implements io.WriterTo interface.
func (f *Formatter) WriteTo(w io.Writer) (int64, error) {
	return f.buf.WriteTo(w)
}

// Printf writes formatted line into the Formatter, automatically
// indented and with added newline at the end.
func (f *Formatter) Printf(format string, args ...interface{}) (int, error) {
	s := fmt.Sprintf(format, args...)
	lines := strings.Split(s, "\n")
	cnt := 0

	for _, line := range lines {
		if line != "" {
			cnt += f.doIndent()
		}

		f.buf.WriteString(line)
		f.buf.WriteByte('\n')
		cnt += len(line) + 1
	}

	return cnt, nil
}

// FmtRequest formats a request Message.
func (f *Formatter) FmtRequest(m *Message) {
	f.fmtMessage(m, fmt.Sprintf("OPERATION %s", Op(m.Code)))
}

// FmtResponse formats a response Message.
func (f *Formatter) FmtResponse(m *Message) {
	f.fmtMessage(m, fmt.Sprintf("STATUS %s", Status(m.Code)))
}

// FmtMessage formats a Message, not knowing if it is a request
// or a response. The code is printed as a number
func (f *Formatter) FmtMessage(m *Message) {
	f.fmtMessage(m, fmt.Sprintf("CODE 0x%4.4x", uint16(m.Code)))
}

// fmtMessage formats a Message with the given code line
func (f *Formatter) fmtMessage(m *Message, code string) {
	f.Printf("{")
	f.indent++

	f.Printf("REQUEST-ID %d", m.RequestID)
	f.Printf("VERSION %s", m.Version)
	f.Printf("%s", code)

	if len(m.attrs) != 0 {
		f.FmtAttributes(m.attrs)
	}

	f.indent--
	f.Printf("}")
}

// FmtAttributes formats a slice of top-level attributes. Each group
// starts with the GROUP line
func (f *Formatter) FmtAttributes(attrs []*Attribute) {
	group := TagZero

	for _, attr := range attrs {
		if attr.Group != group {
			group = attr.Group
			if group != TagZero {
				f.Printf("")
				f.Printf("GROUP %s", group)
			}
		}

		if !attr.IsSeparator() {
			f.FmtAttribute(attr)
		}
	}
}

// FmtAttribute formats a single Attribute.
func (f *Formatter) FmtAttribute(attr *Attribute) {
	f.fmtAttributeOrMember(attr, false)
}

// fmtAttributeOrMember formats a single Attribute or collection member.
func (f *Formatter) fmtAttributeOrMember(attr *Attribute, member bool) {
	buf := &f.buf

	f.doIndent()
	if member {
		fmt.Fprintf(buf, "MEMBER %q %s:", attr.Name, attr.ValueTag)
	} else {
		fmt.Fprintf(buf, "ATTR %q %s:", attr.Name, attr.ValueTag)
	}

	for _, val := range attr.Values {
		if collection, ok := val.(Collection); ok {
			if f.onNL() {
				f.Printf("{")
			} else {
				buf.Write([]byte(" {\n"))
			}

			f.indent++

			if collection.Msg != nil {
				for _, attr2 := range collection.Msg.attrs {
					f.fmtAttributeOrMember(attr2, true)
				}
			}

			f.indent--
			f.Printf("}")
		} else {
			fmt.Fprintf(buf, " %s", val)
		}
	}

	f.forceNL()
}

// onNL returns true if Formatter is at the beginning of new line.
func (f *Formatter) onNL() bool {
	b := f.buf.Bytes()
	return len(b) == 0 || b[len(b)-1] == '\n'
}

// forceNL inserts newline character if Formatter is not at the
// beginning of new line
func (f *Formatter) forceNL() {
	if !f.onNL() {
		f.buf.WriteByte('\n')
	}
}

// doIndent outputs indentation space.
// It returns number of characters written.
func (f *Formatter) doIndent() int {
	cnt := FormatterIndentShift * f.indent
	cnt += f.userIndent

	f.buf.WriteString(strings.Repeat(" ", cnt))

	return cnt
}
