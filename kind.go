/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Value kinds
 */

package ippstream

import (
	"fmt"
)

// Kind enumerates wire representations of values. Each value tag
// maps to exactly one Kind, which defines how its payload is
// read and written
type Kind int

// Kind values
const (
	KindInvalid         Kind = iota // Delimiter tags, no value
	KindInteger                     // 4-byte signed integer
	KindBoolean                     // 1-byte boolean
	KindString                      // Octets of the string
	KindLangString                  // Language and text, each length-prefixed
	KindDate                        // 11-byte RFC 1903 date
	KindResolution                  // xres(4) yres(4) units(1)
	KindRange                       // lower(4) upper(4)
	KindBeginCollection             // Empty; members follow
	KindEndCollection               // Empty; closes collection
	KindMemberName                  // Name of the next collection member
	KindOpaque                      // Raw bytes, not interpreted
)

// Kind returns Kind of values, carried under the tag
func (tag Tag) Kind() Kind {
	if tag.IsDelimiter() {
		return KindInvalid
	}

	switch tag {
	case TagInteger, TagEnum:
		return KindInteger
	case TagBoolean:
		return KindBoolean
	case TagText, TagName, TagReservedString, TagKeyword, TagURI,
		TagURIScheme, TagCharset, TagLanguage, TagMimeType:
		return KindString
	case TagTextLang, TagNameLang:
		return KindLangString
	case TagDateTime:
		return KindDate
	case TagResolution:
		return KindResolution
	case TagRange:
		return KindRange
	case TagBeginCollection:
		return KindBeginCollection
	case TagEndCollection:
		return KindEndCollection
	case TagMemberName:
		return KindMemberName
	}

	return KindOpaque
}

// size returns the fixed payload size for the Kind, or -1 if
// the size is variable
func (k Kind) size() int {
	switch k {
	case KindInteger:
		return 4
	case KindBoolean:
		return 1
	case KindDate:
		return 11
	case KindResolution:
		return 9
	case KindRange:
		return 8
	case KindBeginCollection, KindEndCollection:
		return 0
	}
	return -1
}

// String returns a Kind name, for debugging
func (k Kind) String() string {
	if 0 <= k && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

var kindNames = [...]string{
	KindInvalid:         "Invalid",
	KindInteger:         "Integer",
	KindBoolean:         "Boolean",
	KindString:          "String",
	KindLangString:      "LangString",
	KindDate:            "Date",
	KindResolution:      "Resolution",
	KindRange:           "Range",
	KindBeginCollection: "BeginCollection",
	KindEndCollection:   "EndCollection",
	KindMemberName:      "MemberName",
	KindOpaque:          "Opaque",
}
