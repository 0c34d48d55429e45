/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * IPP protocol messages
 */

package ippstream

import (
	"fmt"
	"strings"

	"github.com/OpenPrinting/goipp"
)

// Code represents Op(operation) or Status codes
type Code uint16

// Op is the IPP operation code
type Op = goipp.Op

// Status is the IPP status code
type Status = goipp.Status

// Version represents a protocol version. It consists
// of Major and Minor version codes, packed into a single
// 16-bit word
type Version uint16

// MakeVersion makes version from major and minor parts
func MakeVersion(major, minor uint8) Version {
	return Version(major)<<8 | Version(minor)
}

// Major returns a major part of version
func (v Version) Major() uint8 {
	return uint8(v >> 8)
}

// Minor returns a minor part of version
func (v Version) Minor() uint8 {
	return uint8(v)
}

// String() converts version to string (i.e., "2.0")
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// State is the state of Message decoding or encoding
type State int

// State values
const (
	StateError     State = iota - 1 // Failed, Message must be discarded
	StateIdle                       // Nothing is done yet
	StateHeader                     // Header is being processed
	StateAttribute                  // Attributes are being processed
	StateData                       // Message is complete
)

// String returns a State name
func (s State) String() string {
	switch s {
	case StateError:
		return "error"
	case StateIdle:
		return "idle"
	case StateHeader:
		return "header"
	case StateAttribute:
		return "attribute"
	case StateData:
		return "data"
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// Message represents a single IPP message, which may be either
// client request or server response, or a collection of attributes,
// nested into a Collection value.
//
// Message is not safe for concurrent use. A single Decode or Encode
// may be in progress at a time, and it owns the message together
// with all nested collections until it completes.
type Message struct {
	// Common header
	Version   Version // Protocol version
	Code      Code    // Operation for request, status for response
	RequestID uint32  // Set in request, returned in response

	attrs    []*Attribute // Attributes, in the wire order
	current  int          // Cursor: current attribute, -1 if none
	prev     int          // Cursor: previous attribute, -1 if none
	curGroup Tag          // Group of the last decoded/encoded attribute
	state    State        // Decoding or encoding state
	use      int          // Use count
	dec      decodeState  // Decoder state, saved between calls
}

// NewMessage creates a new empty message with the default
// protocol version and use count of 1
func NewMessage() *Message {
	return &Message{
		Version: DefaultVersion,
		current: -1,
		prev:    -1,
		use:     1,
	}
}

// NewRequest creates a new request message with the request ID
// of 1 and the attributes-charset and attributes-natural-language
// operation attributes, with the default language
func NewRequest(op Op) *Message {
	m := NewMessage()
	m.Code = Code(op)
	m.RequestID = 1

	m.AddString(TagOperationGroup, TagCharset,
		"attributes-charset", "", "utf-8")
	m.AddString(TagOperationGroup, TagLanguage,
		"attributes-natural-language", "", DefaultLanguage())

	return m
}

// Attrs returns message attributes, in the wire order.
// The returned slice must not be modified
func (m *Message) Attrs() []*Attribute {
	return m.attrs
}

// Len returns the number of attributes, including separators
func (m *Message) Len() int {
	return len(m.attrs)
}

// State returns the current decoding or encoding state
func (m *Message) State() State {
	return m.state
}

// Rewind resets the message state, so it can be encoded again
func (m *Message) Rewind() {
	m.state = StateIdle
	m.current = -1
	m.prev = -1
	m.curGroup = TagZero
	m.dec = decodeState{}
}

// Reset drops all attributes and resets the message state.
// The header and the use count are preserved
func (m *Message) Reset() {
	for _, attr := range m.attrs {
		attr.release()
	}

	m.attrs = nil
	m.Rewind()
}

// UseCount returns the message use count
func (m *Message) UseCount() int {
	return m.use
}

// Retain increments the use count of the message. It returns the
// message, for convenience
func (m *Message) Retain() *Message {
	m.use++
	return m
}

// Release decrements the use count of the message. When it drops
// to zero, all attributes are released, recursively releasing
// collection values
func (m *Message) Release() {
	if m == nil || m.use <= 0 {
		return
	}

	m.use--
	if m.use == 0 {
		// Collection, abandoned in the middle of decoding
		child := m.dec.child
		m.Reset()
		child.Release()
	}
}

// Equal checks that two messages are equal, including their
// headers. Collections are compared by content
func (m *Message) Equal(m2 *Message) bool {
	return m.Version == m2.Version &&
		m.Code == m2.Code &&
		m.RequestID == m2.RequestID &&
		m.attrsEqual(m2)
}

// attrsEqual checks that two messages have the same attributes
func (m *Message) attrsEqual(m2 *Message) bool {
	if m == nil || m2 == nil {
		return m == m2
	}

	if len(m.attrs) != len(m2.attrs) {
		return false
	}

	for i := range m.attrs {
		if !m.attrs[i].Equal(m2.attrs[i]) {
			return false
		}
	}

	return true
}

// Add appends the attribute to the message and makes it current.
// It returns the attribute, for convenience
func (m *Message) Add(attr *Attribute) *Attribute {
	m.prev = len(m.attrs) - 1
	m.current = len(m.attrs)
	m.attrs = append(m.attrs, attr)
	return attr
}

// AddSeparator adds a group separator
func (m *Message) AddSeparator() *Attribute {
	return m.Add(&Attribute{})
}

// AddInteger adds an integer or enum attribute
func (m *Message) AddInteger(group, tag Tag, name string, v int32) *Attribute {
	return m.AddIntegers(group, tag, name, v)
}

// AddIntegers adds an integer or enum attribute with multiple values
func (m *Message) AddIntegers(group, tag Tag, name string,
	v ...int32) *Attribute {

	attr := &Attribute{Name: name, Group: group, ValueTag: tag}
	for _, i := range v {
		attr.Values = append(attr.Values, Integer(i))
	}

	return m.Add(attr)
}

// AddBoolean adds a boolean attribute
func (m *Message) AddBoolean(group Tag, name string, v bool) *Attribute {
	return m.AddBooleans(group, name, v)
}

// AddBooleans adds a boolean attribute with multiple values
func (m *Message) AddBooleans(group Tag, name string, v ...bool) *Attribute {
	attr := &Attribute{Name: name, Group: group, ValueTag: TagBoolean}
	for _, b := range v {
		attr.Values = append(attr.Values, Boolean(b))
	}

	return m.Add(attr)
}

// AddString adds a string attribute.
//
// For TagTextLang and TagNameLang values are LangString with
// the lang language, DefaultLanguage if lang is empty. For other
// tags lang is ignored.
//
// Values of charset and naturalLanguage attributes are normalized:
// lower-cased, with '_' replaced by '-'
func (m *Message) AddString(group, tag Tag, name, lang, v string) *Attribute {
	return m.AddStrings(group, tag, name, lang, v)
}

// AddStrings adds a string attribute with multiple values.
// See AddString for details
func (m *Message) AddStrings(group, tag Tag, name, lang string,
	v ...string) *Attribute {

	attr := &Attribute{Name: name, Group: group, ValueTag: tag}

	if tag.Kind() == KindLangString {
		if lang == "" {
			lang = DefaultLanguage()
		}
		lang = normalizeLangCode(lang)
	}

	for _, s := range v {
		switch tag {
		case TagTextLang, TagNameLang:
			attr.Values = append(attr.Values,
				LangString{Lang: lang, Text: s})
		case TagCharset, TagLanguage:
			attr.Values = append(attr.Values,
				String(normalizeLangCode(s)))
		default:
			attr.Values = append(attr.Values, String(s))
		}
	}

	return m.Add(attr)
}

// AddRange adds a rangeOfInteger attribute
func (m *Message) AddRange(group Tag, name string,
	lower, upper int32) *Attribute {

	return m.AddRanges(group, name, Range{lower, upper})
}

// AddRanges adds a rangeOfInteger attribute with multiple values
func (m *Message) AddRanges(group Tag, name string, v ...Range) *Attribute {
	attr := &Attribute{Name: name, Group: group, ValueTag: TagRange}
	for _, r := range v {
		attr.Values = append(attr.Values, r)
	}

	return m.Add(attr)
}

// AddResolution adds a resolution attribute
func (m *Message) AddResolution(group Tag, name string,
	units Units, x, y int32) *Attribute {

	return m.AddResolutions(group, name, Resolution{x, y, units})
}

// AddResolutions adds a resolution attribute with multiple values
func (m *Message) AddResolutions(group Tag, name string,
	v ...Resolution) *Attribute {

	attr := &Attribute{Name: name, Group: group, ValueTag: TagResolution}
	for _, r := range v {
		attr.Values = append(attr.Values, r)
	}

	return m.Add(attr)
}

// AddDate adds a dateTime attribute
func (m *Message) AddDate(group Tag, name string, d Date) *Attribute {
	return m.Add(&Attribute{
		Name:     name,
		Group:    group,
		ValueTag: TagDateTime,
		Values:   []Value{d},
	})
}

// AddOctetString adds an octetString attribute
func (m *Message) AddOctetString(group Tag, name string,
	data []byte) *Attribute {

	return m.Add(&Attribute{
		Name:     name,
		Group:    group,
		ValueTag: TagString,
		Values:   []Value{Opaque(append([]byte(nil), data...))},
	})
}

// AddOutOfBand adds an attribute with the out-of-band tag
// (no-value, unknown, not-settable and so on) and the
// empty value
func (m *Message) AddOutOfBand(group, tag Tag, name string) *Attribute {
	return m.Add(&Attribute{
		Name:     name,
		Group:    group,
		ValueTag: tag,
		Values:   []Value{Opaque(nil)},
	})
}

// AddCollection adds a collection attribute. The collection
// use count is incremented
func (m *Message) AddCollection(group Tag, name string,
	c *Message) *Attribute {

	return m.AddCollections(group, name, c)
}

// AddCollections adds a collection attribute with multiple values.
// Use count of each collection is incremented
func (m *Message) AddCollections(group Tag, name string,
	c ...*Message) *Attribute {

	attr := &Attribute{Name: name, Group: group, ValueTag: TagBeginCollection}
	for _, col := range c {
		attr.Values = append(attr.Values, Collection{col.Retain()})
	}

	return m.Add(attr)
}

// Find resets the cursor and returns the first attribute with the
// given name and tag. See FindNext for matching rules
func (m *Message) Find(name string, tag Tag) *Attribute {
	m.current = -1
	return m.FindNext(name, tag)
}

// FindNext returns the next attribute after the cursor with the
// given name and tag, and moves the cursor onto it.
//
// Names are compared case-insensitively. TagZero matches any tag,
// TagText also matches TagTextLang, and TagName matches TagNameLang.
//
// If nothing is found, the cursor is reset and nil is returned
func (m *Message) FindNext(name string, tag Tag) *Attribute {
	for i := m.current + 1; i < len(m.attrs); i++ {
		attr := m.attrs[i]
		if attr.Name != "" && strings.EqualFold(attr.Name, name) &&
			tagMatch(attr.ValueTag, tag) {
			m.current = i
			m.prev = i - 1
			return attr
		}
	}

	m.current = -1
	m.prev = -1

	return nil
}

// tagMatch reports whether attribute tag matches the search tag
func tagMatch(attrTag, tag Tag) bool {
	switch {
	case tag == TagZero, attrTag == tag:
		return true
	case tag == TagText:
		return attrTag == TagTextLang
	case tag == TagName:
		return attrTag == TagNameLang
	}
	return false
}

// Delete removes the attribute from the message and releases its
// values. Cursors, pointing at or behind the removed attribute,
// are adjusted, so FindNext continues with the attribute that
// followed it.
//
// It returns false if attribute is not found.
func (m *Message) Delete(attr *Attribute) bool {
	idx := -1
	for i, a := range m.attrs {
		if a == attr {
			idx = i
			break
		}
	}

	if idx < 0 {
		return false
	}

	copy(m.attrs[idx:], m.attrs[idx+1:])
	m.attrs[len(m.attrs)-1] = nil
	m.attrs = m.attrs[:len(m.attrs)-1]

	m.current = cursorAfterDelete(m.current, idx)
	m.prev = cursorAfterDelete(m.prev, idx)

	attr.release()

	return true
}

// cursorAfterDelete adjusts the cursor after deletion of the
// attribute at idx
func cursorAfterDelete(cursor, idx int) int {
	if cursor >= idx {
		cursor--
	}
	return cursor
}
