/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Values for message attributes
 */

package ippstream

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Value represents a single attribute value.
//
// The set of implementations is closed: Integer, Boolean, String,
// LangString, Date, Resolution, Range, Collection and Opaque
type Value interface {
	// String formats the value for humans
	String() string

	// Kind returns the wire representation of the value
	Kind() Kind

	// payloadLen returns the encoded length of the value payload,
	// without the 2-byte length prefix
	payloadLen() int

	// appendPayload appends encoded payload to buf
	appendPayload(buf []byte) []byte
}

// Integer is the Value that represents 32-bit signed int.
//
// Use with: TagInteger, TagEnum
type Integer int32

// String converts Integer value to string
func (v Integer) String() string { return fmt.Sprintf("%d", int32(v)) }

// Kind returns KindInteger
func (Integer) Kind() Kind { return KindInteger }

func (Integer) payloadLen() int { return 4 }

func (v Integer) appendPayload(buf []byte) []byte {
	return binary.BigEndian.AppendUint32(buf, uint32(v))
}

// Boolean is the Value that contains true or false
//
// Use with: TagBoolean
type Boolean bool

// String converts Boolean value to string
func (v Boolean) String() string { return fmt.Sprintf("%t", bool(v)) }

// Kind returns KindBoolean
func (Boolean) Kind() Kind { return KindBoolean }

func (Boolean) payloadLen() int { return 1 }

func (v Boolean) appendPayload(buf []byte) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// String is the Value that represents string of text
//
// Use with: TagText, TagName, TagReservedString, TagKeyword, TagURI,
// TagURIScheme, TagCharset, TagLanguage, TagMimeType
type String string

// String returns the string itself
func (v String) String() string { return string(v) }

// Kind returns KindString
func (String) Kind() Kind { return KindString }

func (v String) payloadLen() int { return len(v) }

func (v String) appendPayload(buf []byte) []byte {
	return append(buf, v...)
}

// LangString is the Value that represents a combination
// of a natural language and a text
//
// Use with: TagTextLang, TagNameLang
type LangString struct {
	Lang, Text string // Language and text
}

// String converts LangString value to string
func (v LangString) String() string { return v.Text + " [" + v.Lang + "]" }

// Kind returns KindLangString
func (LangString) Kind() Kind { return KindLangString }

func (v LangString) payloadLen() int { return 4 + len(v.Lang) + len(v.Text) }

func (v LangString) appendPayload(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(v.Lang)))
	buf = append(buf, v.Lang...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(v.Text)))
	return append(buf, v.Text...)
}

// Resolution is the Value that represents image resolution.
//
// Use with: TagResolution
type Resolution struct {
	X, Y  int32 // X/Y resolutions
	Units Units // Resolution units
}

// String converts Resolution value to string
func (v Resolution) String() string {
	return fmt.Sprintf("%dx%d%s", v.X, v.Y, v.Units)
}

// Kind returns KindResolution
func (Resolution) Kind() Kind { return KindResolution }

func (Resolution) payloadLen() int { return 9 }

func (v Resolution) appendPayload(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(v.X))
	buf = binary.BigEndian.AppendUint32(buf, uint32(v.Y))
	return append(buf, byte(v.Units))
}

// Units represents resolution units
type Units uint8

// Resolution units codes
const (
	UnitsDpi  Units = 3 // Dots per inch
	UnitsDpcm Units = 4 // Dots per cm
)

// String converts Units to string
func (u Units) String() string {
	switch u {
	case UnitsDpi:
		return "dpi"
	case UnitsDpcm:
		return "dpcm"
	default:
		return fmt.Sprintf("0x%2.2x", uint8(u))
	}
}

// Range is the Value that represents a range of 32-bit signed integers
//
// Use with: TagRange
type Range struct {
	Lower, Upper int32 // Lower/upper bounds
}

// String converts Range value to string
func (v Range) String() string {
	return fmt.Sprintf("%d-%d", v.Lower, v.Upper)
}

// Kind returns KindRange
func (Range) Kind() Kind { return KindRange }

func (Range) payloadLen() int { return 8 }

func (v Range) appendPayload(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(v.Lower))
	return binary.BigEndian.AppendUint32(buf, uint32(v.Upper))
}

// Collection is the Value that holds a nested Message. The Message
// may be shared between several Collection values; its use count
// tracks the number of owners
//
// Use with: TagBeginCollection
type Collection struct {
	Msg *Message // Collection members
}

// String converts Collection to string
func (v Collection) String() string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if v.Msg != nil {
		for i, attr := range v.Msg.attrs {
			if i > 0 {
				buf.WriteByte(' ')
			}
			fmt.Fprintf(&buf, "%s=%s", attr.Name, attr.valuesString())
		}
	}
	buf.WriteByte('}')
	return buf.String()
}

// Kind returns KindBeginCollection
func (Collection) Kind() Kind { return KindBeginCollection }

func (Collection) payloadLen() int { return 0 }

func (Collection) appendPayload(buf []byte) []byte { return buf }

// Opaque is the Value that contains raw bytes. It is used for
// octetString, for out-of-band tags and for tags the codec
// doesn't interpret
type Opaque []byte

// String converts Opaque value to string
func (v Opaque) String() string {
	return fmt.Sprintf("%x", []byte(v))
}

// Kind returns KindOpaque
func (Opaque) Kind() Kind { return KindOpaque }

func (v Opaque) payloadLen() int { return len(v) }

func (v Opaque) appendPayload(buf []byte) []byte {
	return append(buf, v...)
}

// ValueEqual checks if two values are equal. Collections are
// compared by content
func ValueEqual(v1, v2 Value) bool {
	switch v1 := v1.(type) {
	case Opaque:
		v2, ok := v2.(Opaque)
		return ok && bytes.Equal(v1, v2)
	case Collection:
		v2, ok := v2.(Collection)
		return ok && v1.Msg.attrsEqual(v2.Msg)
	}

	return v1 == v2
}

// parseValue decodes payload of the given Kind. Data is copied,
// so the caller may reuse the buffer
func parseValue(kind Kind, data []byte) (Value, error) {
	if sz := kind.size(); sz >= 0 && len(data) != sz {
		return nil, fmt.Errorf("%w: %s value must be %d bytes, got %d",
			ErrValueLength, kind, sz, len(data))
	}

	switch kind {
	case KindInteger:
		return Integer(binary.BigEndian.Uint32(data)), nil

	case KindBoolean:
		return Boolean(data[0] != 0), nil

	case KindString:
		return String(data), nil

	case KindLangString:
		return parseLangString(data)

	case KindDate:
		var d Date
		copy(d[:], data)
		return d, nil

	case KindResolution:
		return Resolution{
			X:     int32(binary.BigEndian.Uint32(data[0:4])),
			Y:     int32(binary.BigEndian.Uint32(data[4:8])),
			Units: Units(data[8]),
		}, nil

	case KindRange:
		return Range{
			Lower: int32(binary.BigEndian.Uint32(data[0:4])),
			Upper: int32(binary.BigEndian.Uint32(data[4:8])),
		}, nil
	}

	if len(data) == 0 {
		return Opaque(nil), nil
	}

	return Opaque(append([]byte(nil), data...)), nil
}

// parseLangString decodes the two-part language/text payload:
//
//	lang-length(2) lang text-length(2) text
func parseLangString(data []byte) (Value, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: truncated language string",
			ErrValueLength)
	}

	llen := int(binary.BigEndian.Uint16(data))
	if 2+llen+2 > len(data) {
		return nil, fmt.Errorf("%w: language length %d exceeds value",
			ErrValueLength, llen)
	}

	lang := data[2 : 2+llen]
	data = data[2+llen:]

	tlen := int(binary.BigEndian.Uint16(data))
	if 2+tlen != len(data) {
		return nil, fmt.Errorf("%w: text length %d doesn't match value",
			ErrValueLength, tlen)
	}

	return LangString{Lang: string(lang), Text: string(data[2:])}, nil
}
