/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Message attributes
 */

package ippstream

import (
	"bytes"
	"fmt"
)

// Attribute represents a single attribute of the Message.
//
// All values share the ValueTag, with one relaxation: attributes
// with a text-like tag may carry both String and LangString values.
//
// An attribute with empty Name, zero tags and no values is a group
// separator
type Attribute struct {
	Name     string  // Attribute name, "" for separator
	Group    Tag     // Group tag, TagZero within collections
	ValueTag Tag     // Value tag
	Values   []Value // Attribute values
}

// IsSeparator returns true if attribute is a group separator
func (attr *Attribute) IsSeparator() bool {
	return attr.Name == "" && attr.ValueTag == TagZero &&
		len(attr.Values) == 0
}

// Equal checks that attr and attr2 are equal
func (attr *Attribute) Equal(attr2 *Attribute) bool {
	if attr.Name != attr2.Name ||
		attr.Group != attr2.Group ||
		attr.ValueTag != attr2.ValueTag ||
		len(attr.Values) != len(attr2.Values) {
		return false
	}

	for i := range attr.Values {
		if !ValueEqual(attr.Values[i], attr2.Values[i]) {
			return false
		}
	}

	return true
}

// String formats the attribute for humans
func (attr *Attribute) String() string {
	if attr.IsSeparator() {
		return "----"
	}

	return fmt.Sprintf("%s %s: %s", attr.Name, attr.ValueTag,
		attr.valuesString())
}

// valuesString formats attribute values, comma-separated
func (attr *Attribute) valuesString() string {
	var buf bytes.Buffer

	for i, v := range attr.Values {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(v.String())
	}

	return buf.String()
}

// wireTag returns the tag, used to write the value v of the attribute.
// Normally it is the attribute's ValueTag, but the text-like
// attributes may switch between the language and non-language
// variants of the tag on per-value basis
func (attr *Attribute) wireTag(v Value) (Tag, error) {
	tag := attr.ValueTag
	kind := tag.Kind()

	switch vk := v.Kind(); {
	case vk == kind:
		return tag, nil

	case vk == KindLangString && kind == KindString:
		if tag == TagName {
			return TagNameLang, nil
		}
		return TagTextLang, nil

	case vk == KindString && kind == KindLangString:
		return tag.withoutLang(), nil

	case vk == KindString && kind == KindOpaque:
		return tag, nil
	}

	return TagZero, fmt.Errorf("%w: %s value under %s tag",
		ErrValueType, v.Kind(), tag)
}

// release drops attribute values. Collection values release
// their messages
func (attr *Attribute) release() {
	for _, v := range attr.Values {
		if c, ok := v.(Collection); ok {
			c.Msg.Release()
		}
	}

	attr.Values = nil
}
