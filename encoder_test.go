/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Encoder tests
 */

package ippstream

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// newMediaCol builds the message, encoded as mediaCol()
func newMediaCol() *Message {
	size := NewMessage()
	size.AddInteger(TagZero, TagInteger, "x-dimension", 21000)
	size.AddInteger(TagZero, TagInteger, "y-dimension", 29700)

	col := NewMessage()
	col.AddCollection(TagZero, "media-size", size)
	col.AddString(TagZero, TagKeyword, "media-type", "", "stationery")

	m := NewMessage()
	m.Version = MakeVersion(2, 0)
	m.Code = 2
	m.RequestID = 7
	m.AddCollection(TagJobGroup, "media-col", col)

	size.Release()
	col.Release()

	return m
}

// TestEncode tests encoding of well-formed messages
func TestEncode(t *testing.T) {
	type testData struct {
		comment  string
		build    func(m *Message)
		expected []byte
	}

	hdr := func() wire { return wire(nil).header(0x0101, 0x0002, 1) }

	tests := []testData{
		{
			comment: "Print-Job",
			build: func(m *Message) {
				m.AddString(TagOperationGroup, TagCharset,
					"attributes-charset", "", "utf-8")
				m.AddString(TagOperationGroup, TagLanguage,
					"attributes-natural-language", "", "en")
			},
			expected: printJobRequest(),
		},

		{
			comment:  "no attributes",
			build:    func(m *Message) {},
			expected: hdr().tag(TagEnd),
		},

		{
			comment: "range",
			build: func(m *Message) {
				m.AddRange(TagJobGroup, "copies-supported", 1, 10)
			},
			expected: hdr().tag(TagJobGroup).
				entry(TagRange, "copies-supported",
					[]byte{0, 0, 0, 1, 0, 0, 0, 0x0a}).
				tag(TagEnd),
		},

		{
			comment: "1setOf enum",
			build: func(m *Message) {
				m.AddIntegers(TagPrinterGroup, TagEnum,
					"operations-supported", 2, 4, 11)
			},
			expected: hdr().tag(TagPrinterGroup).
				entry(TagEnum, "operations-supported", be32(2)).
				entry(TagEnum, "", be32(4)).
				entry(TagEnum, "", be32(11)).
				tag(TagEnd),
		},

		{
			comment: "resolution and boolean",
			build: func(m *Message) {
				m.AddResolution(TagPrinterGroup,
					"printer-resolution-default", UnitsDpi, 600, 300)
				m.AddBoolean(TagPrinterGroup, "color-supported", true)
			},
			expected: hdr().tag(TagPrinterGroup).
				entry(TagResolution, "printer-resolution-default",
					[]byte{0, 0, 2, 0x58, 0, 0, 1, 0x2c, 3}).
				entry(TagBoolean, "color-supported", []byte{1}).
				tag(TagEnd),
		},

		{
			comment: "out-of-band and octetString",
			build: func(m *Message) {
				m.AddOutOfBand(TagJobGroup, TagNoValue, "job-hold-until")
				m.AddOctetString(TagJobGroup, "job-password", []byte{1, 2})
			},
			expected: hdr().tag(TagJobGroup).
				entry(TagNoValue, "job-hold-until", nil).
				entry(TagString, "job-password", []byte{1, 2}).
				tag(TagEnd),
		},

		{
			comment: "mixed text set",
			build: func(m *Message) {
				attr := m.AddString(TagPrinterGroup, TagName,
					"printer-name", "", "hello")
				attr.Values = append(attr.Values,
					LangString{Lang: "fr", Text: "bonjour"})

				attr = m.AddString(TagPrinterGroup, TagTextLang,
					"printer-info", "de", "hallo")
				attr.Values = append(attr.Values, String("hi"))
			},
			expected: hdr().tag(TagPrinterGroup).
				entry(TagName, "printer-name", []byte("hello")).
				entry(TagNameLang, "",
					[]byte("\x00\x02fr\x00\x07bonjour")).
				entry(TagTextLang, "printer-info",
					[]byte("\x00\x02de\x00\x05hallo")).
				entry(TagText, "", []byte("hi")).
				tag(TagEnd),
		},

		{
			comment: "repeated groups",
			build: func(m *Message) {
				m.AddInteger(TagJobGroup, TagInteger, "job-id", 1)
				m.AddSeparator()
				m.AddInteger(TagJobGroup, TagInteger, "job-id", 2)
				m.AddInteger(TagPrinterGroup, TagInteger, "queued-job-count", 2)
				m.AddInteger(TagJobGroup, TagInteger, "job-id", 3)
			},
			expected: hdr().tag(TagJobGroup).
				entry(TagInteger, "job-id", be32(1)).
				tag(TagJobGroup).
				entry(TagInteger, "job-id", be32(2)).
				tag(TagPrinterGroup).
				entry(TagInteger, "queued-job-count", be32(2)).
				tag(TagJobGroup).
				entry(TagInteger, "job-id", be32(3)).
				tag(TagEnd),
		},

		{
			comment: "attribute without group is skipped",
			build: func(m *Message) {
				m.AddInteger(TagZero, TagInteger, "orphan", 1)
				m.AddInteger(TagJobGroup, TagInteger, "job-id", 1)
			},
			expected: hdr().tag(TagJobGroup).
				entry(TagInteger, "job-id", be32(1)).
				tag(TagEnd),
		},
	}

	for _, test := range tests {
		m := NewMessage()
		m.Code = 2
		m.RequestID = 1
		test.build(m)

		out, err := m.EncodeBytes()
		if err != nil {
			t.Errorf("%s: %s", test.comment, err)
			continue
		}

		if !bytes.Equal(out, test.expected) {
			t.Errorf("%s:\nexpected % x\npresent  % x",
				test.comment, test.expected, out)
		}

		if l := m.Length(); l != len(out) {
			t.Errorf("%s: Length() %d, encoded %d",
				test.comment, l, len(out))
		}
	}
}

// TestEncodeCollection tests encoding of nested collections
func TestEncodeCollection(t *testing.T) {
	m := newMediaCol()

	out, err := m.EncodeBytes()
	if err != nil {
		t.Fatalf("encode: %s", err)
	}

	if !bytes.Equal(out, mediaCol()) {
		t.Errorf("expected % x\npresent  % x", mediaCol(), out)
	}

	m2 := NewMessage()
	if err = m2.DecodeBytes(out); err != nil {
		t.Fatalf("decode: %s", err)
	}

	if !m.Equal(m2) {
		t.Errorf("decoded message differs")
	}

	// Encoding is repeatable
	out2, err := m.EncodeBytes()
	if err != nil || !bytes.Equal(out, out2) {
		t.Errorf("second encoding differs: %v", err)
	}
}

// TestEncodeSharedCollection tests encoding of a collection, used
// by several values
func TestEncodeSharedCollection(t *testing.T) {
	col := NewMessage()
	col.AddString(TagZero, TagKeyword, "media-type", "", "stationery")

	m := NewMessage()
	m.AddCollections(TagPrinterGroup, "media-col-database", col, col)

	if col.UseCount() != 3 {
		t.Errorf("use count: expected 3, present %d", col.UseCount())
	}

	out, err := m.EncodeBytes()
	if err != nil {
		t.Fatalf("encode: %s", err)
	}

	m2 := NewMessage()
	if err = m2.DecodeBytes(out); err != nil {
		t.Fatalf("decode: %s", err)
	}

	attr := m2.Find("media-col-database", TagBeginCollection)
	if attr == nil || len(attr.Values) != 2 {
		t.Fatalf("media-col-database: bad %v", attr)
	}

	for i, v := range attr.Values {
		if !v.(Collection).Msg.attrsEqual(col) {
			t.Errorf("value %d differs", i)
		}
	}
}

// TestEncodeErrors tests encoding of malformed messages
func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		comment string
		build   func(m *Message)
		err     error
	}{
		{
			comment: "attribute without name",
			build: func(m *Message) {
				m.Add(&Attribute{
					Group:    TagJobGroup,
					ValueTag: TagInteger,
					Values:   []Value{Integer(1)},
				})
			},
			err: ErrNoName,
		},
		{
			comment: "attribute without values",
			build: func(m *Message) {
				m.AddIntegers(TagJobGroup, TagInteger, "copies")
			},
			err: ErrNoValue,
		},
		{
			comment: "name too long",
			build: func(m *Message) {
				m.AddInteger(TagJobGroup, TagInteger,
					strings.Repeat("x", MaxLength+1), 1)
			},
			err: ErrNameLength,
		},
		{
			comment: "member name too long",
			build: func(m *Message) {
				col := NewMessage()
				col.AddInteger(TagZero, TagInteger,
					strings.Repeat("x", MaxLength), 1)
				m.AddCollection(TagJobGroup, "col", col)
			},
			err: ErrNameLength,
		},
		{
			comment: "value too long",
			build: func(m *Message) {
				m.AddString(TagJobGroup, TagText, "job-name", "",
					strings.Repeat("x", MaxLength+1))
			},
			err: ErrValueLength,
		},
		{
			comment: "value type mismatch",
			build: func(m *Message) {
				m.Add(&Attribute{
					Name:     "copies",
					Group:    TagJobGroup,
					ValueTag: TagKeyword,
					Values:   []Value{Integer(1)},
				})
			},
			err: ErrValueType,
		},
		{
			comment: "additional value type mismatch",
			build: func(m *Message) {
				attr := m.AddInteger(TagJobGroup, TagInteger, "copies", 1)
				attr.Values = append(attr.Values, Boolean(true))
			},
			err: ErrValueType,
		},
		{
			comment: "nil collection",
			build: func(m *Message) {
				m.Add(&Attribute{
					Name:     "media-col",
					Group:    TagJobGroup,
					ValueTag: TagBeginCollection,
					Values:   []Value{Collection{}},
				})
			},
			err: ErrValueType,
		},
		{
			comment: "bad group",
			build: func(m *Message) {
				m.AddInteger(TagInteger, TagInteger, "copies", 1)
			},
			err: ErrUnexpectedTag,
		},
	}

	for _, test := range tests {
		m := NewMessage()
		test.build(m)

		var e Encoder
		state, err := e.Encode(io.Discard, true, m)
		if !errors.Is(err, test.err) {
			t.Errorf("%s: expected %v, present %v",
				test.comment, test.err, err)
			continue
		}

		if state != StateError || m.State() != StateError {
			t.Errorf("%s: expected %s state, present %s",
				test.comment, StateError, m.State())
		}

		_, err = e.Encode(io.Discard, true, m)
		if err != ErrState {
			t.Errorf("%s: repeated Encode: expected %v, present %v",
				test.comment, ErrState, err)
		}
	}
}

// TestEncodeDepthLimit tests the collections nesting limit
func TestEncodeDepthLimit(t *testing.T) {
	e := Encoder{MaxDepth: 1}
	_, err := e.Encode(io.Discard, true, newMediaCol())
	if !errors.Is(err, ErrTooDeep) {
		t.Errorf("MaxDepth 1: expected %v, present %v", ErrTooDeep, err)
	}

	e = Encoder{MaxDepth: 2}
	_, err = e.Encode(io.Discard, true, newMediaCol())
	if err != nil {
		t.Errorf("MaxDepth 2: %s", err)
	}
}

// TestEncodeNonBlocking tests that non-blocking Encoder writes
// one attribute per call
func TestEncodeNonBlocking(t *testing.T) {
	m := newMediaCol()
	m.AddInteger(TagJobGroup, TagInteger, "copies", 2)
	m.AddSeparator()
	m.AddString(TagJobGroup, TagName, "job-name", "", "test")

	expected, err := m.EncodeBytes()
	if err != nil {
		t.Fatalf("encode: %s", err)
	}

	var buf bytes.Buffer
	var e Encoder

	m.Rewind()
	calls := 0
	for {
		state, err := e.Encode(&buf, false, m)
		calls++

		if err != nil {
			t.Fatalf("call %d: %s", calls, err)
		}

		if state == StateData {
			break
		}

		if state != StateAttribute || calls > m.Len() {
			t.Fatalf("call %d: state %s", calls, state)
		}
	}

	if calls != 3 {
		t.Errorf("expected 3 calls, present %d", calls)
	}

	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("non-blocking output differs:\nexpected % x\npresent  % x",
			expected, buf.Bytes())
	}

	// Further calls write nothing
	state, err := e.Encode(&buf, false, m)
	if state != StateData || err != nil || buf.Len() != len(expected) {
		t.Errorf("after completion: %s %v", state, err)
	}
}

// TestEncodeShortWrite tests encoding into a writer that doesn't
// accept all the data
func TestEncodeShortWrite(t *testing.T) {
	var e Encoder

	_, err := e.Encode(shortWriter{limit: 4}, true, newMediaCol())
	if !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("expected %v, present %v", io.ErrShortWrite, err)
	}
}

// TestEncodeLargeValues tests values near the length limit, which
// require flushing of the scratch buffer
func TestEncodeLargeValues(t *testing.T) {
	m := NewMessage()
	big := strings.Repeat("x", MaxLength)
	m.AddStrings(TagJobGroup, TagText, "job-name", "", big, big, "")
	m.AddOctetString(TagJobGroup, "document-data", []byte(big))

	out, err := m.EncodeBytes()
	if err != nil {
		t.Fatalf("encode: %s", err)
	}

	if len(out) != m.Length() {
		t.Errorf("Length() %d, encoded %d", m.Length(), len(out))
	}

	m2 := NewMessage()
	if err = m2.DecodeBytes(out); err != nil {
		t.Fatalf("decode: %s", err)
	}

	if !m.Equal(m2) {
		t.Errorf("decoded message differs")
	}
}

// TestEncodeLog tests encoder logging
func TestEncodeLog(t *testing.T) {
	var buf bytes.Buffer

	e := Encoder{Log: NewLogger(&buf, LogAll)}
	_, err := e.Encode(io.Discard, true, newMediaCol())
	if err != nil {
		t.Fatalf("encode: %s", err)
	}

	for _, s := range []string{"IPP message encoded", "MEMBER \"x-dimension\""} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("trace: %q not found in:\n%s", s, buf.String())
		}
	}

	buf.Reset()
	m := NewMessage()
	m.AddIntegers(TagJobGroup, TagInteger, "copies")

	_, err = e.Encode(io.Discard, true, m)
	if err == nil {
		t.Fatalf("error expected")
	}

	if !strings.Contains(buf.String(), "IPP encode") {
		t.Errorf("error not logged:\n%s", buf.String())
	}
}
