/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * IPP Tags
 */

package ippstream

import (
	"fmt"
	"strings"
)

// Tag represents a one-byte tag, used in the binary representation
// of the IPP message. Tags below 0x10 are delimiters (group tags
// and the end-of-attributes tag), the rest are value tags.
type Tag uint8

// Tag values
const (
	// Delimiter tags
	TagZero                   Tag = 0x00 // Zero tag - used for separators
	TagOperationGroup         Tag = 0x01 // Operation group
	TagJobGroup               Tag = 0x02 // Job group
	TagEnd                    Tag = 0x03 // End-of-attributes
	TagPrinterGroup           Tag = 0x04 // Printer group
	TagUnsupportedGroup       Tag = 0x05 // Unsupported attributes group
	TagSubscriptionGroup      Tag = 0x06 // Subscription group
	TagEventNotificationGroup Tag = 0x07 // Event group
	TagResourceGroup          Tag = 0x08 // Resource group
	TagDocumentGroup          Tag = 0x09 // Document group
	TagSystemGroup            Tag = 0x0a // System group
	TagFuture11Group          Tag = 0x0b // Future group 11
	TagFuture12Group          Tag = 0x0c // Future group 12
	TagFuture13Group          Tag = 0x0d // Future group 13
	TagFuture14Group          Tag = 0x0e // Future group 14
	TagFuture15Group          Tag = 0x0f // Future group 15

	// Value tags
	TagUnsupportedValue Tag = 0x10 // Unsupported value
	TagDefault          Tag = 0x11 // Default value
	TagUnknown          Tag = 0x12 // Unknown value
	TagNoValue          Tag = 0x13 // No-value value
	TagNotSettable      Tag = 0x15 // Not-settable value
	TagDeleteAttr       Tag = 0x16 // Delete-attribute value
	TagAdminDefine      Tag = 0x17 // Admin-defined value
	TagInteger          Tag = 0x21 // Integer value
	TagBoolean          Tag = 0x22 // Boolean value
	TagEnum             Tag = 0x23 // Enumeration value
	TagString           Tag = 0x30 // Octet string value
	TagDateTime         Tag = 0x31 // Date/time value
	TagResolution       Tag = 0x32 // Resolution value
	TagRange            Tag = 0x33 // Range value
	TagBeginCollection  Tag = 0x34 // Beginning of collection value
	TagTextLang         Tag = 0x35 // Text-with-language value
	TagNameLang         Tag = 0x36 // Name-with-language value
	TagEndCollection    Tag = 0x37 // End of collection value
	TagText             Tag = 0x41 // Text value
	TagName             Tag = 0x42 // Name value
	TagReservedString   Tag = 0x43 // Reserved for future string value
	TagKeyword          Tag = 0x44 // Keyword value
	TagURI              Tag = 0x45 // URI value
	TagURIScheme        Tag = 0x46 // URI scheme value
	TagCharset          Tag = 0x47 // Character set value
	TagLanguage         Tag = 0x48 // Language value
	TagMimeType         Tag = 0x49 // MIME media type value
	TagMemberName       Tag = 0x4a // Collection member name value
	TagExtension        Tag = 0x7f // Extension point for 32-bit tags
)

// IsDelimiter returns true for delimiter tags
func (tag Tag) IsDelimiter() bool {
	return tag < 0x10
}

// IsGroup returns true for group tags
func (tag Tag) IsGroup() bool {
	return tag.IsDelimiter() && tag != TagZero && tag != TagEnd
}

// IsEmptyValue returns true for out-of-band tags that must
// come with the empty value
func (tag Tag) IsEmptyValue() bool {
	switch tag {
	case TagNoValue, TagNotSettable, TagDeleteAttr, TagAdminDefine:
		return true
	}
	return false
}

// IsText returns true for tags of the string-type interchange set:
// the text-like tags that may be mixed within one attribute
func (tag Tag) IsText() bool {
	return tag == TagTextLang || tag == TagNameLang ||
		(tag >= TagText && tag <= TagMimeType)
}

// setCompatible reports whether a value with the wire tag next
// may be added to an attribute, established with the tag tag
func (tag Tag) setCompatible(next Tag) bool {
	switch {
	case tag == TagZero:
		return true
	case tag.IsText():
		return next.IsText() || next == TagNoValue
	}
	return tag == next
}

// withLang returns the *WithLanguage variant of the text/name tag
// and the tag itself otherwise
func (tag Tag) withLang() Tag {
	switch tag {
	case TagText:
		return TagTextLang
	case TagName:
		return TagNameLang
	}
	return tag
}

// withoutLang returns the plain variant of the *WithLanguage tag
// and the tag itself otherwise
func (tag Tag) withoutLang() Tag {
	switch tag {
	case TagTextLang:
		return TagText
	case TagNameLang:
		return TagName
	}
	return tag
}

// String returns a tag name, as defined by RFC 8010
func (tag Tag) String() string {
	if int(tag) < len(tagNames) {
		if s := tagNames[tag]; s != "" {
			return s
		}
	}

	return fmt.Sprintf("0x%2.2x", uint(tag))
}

// TagValue returns a Tag by its name. Both RFC 8010 names and the
// short group names (i.e., "operation", "job") are understood,
// the search is case-insensitive. Unknown names return TagZero
func TagValue(name string) Tag {
	name = strings.ToLower(name)

	for tag, s := range tagNames {
		if s != "" && strings.ToLower(s) == name {
			return Tag(tag)
		}
	}

	if tag, ok := tagAliases[name]; ok {
		return tag
	}

	return TagZero
}

var tagNames = [...]string{
	// Delimiter tags
	TagZero:                   "zero",
	TagOperationGroup:         "operation-attributes-tag",
	TagJobGroup:               "job-attributes-tag",
	TagEnd:                    "end-of-attributes-tag",
	TagPrinterGroup:           "printer-attributes-tag",
	TagUnsupportedGroup:       "unsupported-attributes-tag",
	TagSubscriptionGroup:      "subscription-attributes-tag",
	TagEventNotificationGroup: "event-notification-attributes-tag",
	TagResourceGroup:          "resource-attributes-tag",
	TagDocumentGroup:          "document-attributes-tag",
	TagSystemGroup:            "system-attributes-tag",

	// Value tags
	TagUnsupportedValue: "unsupported",
	TagDefault:          "default",
	TagUnknown:          "unknown",
	TagNoValue:          "no-value",
	TagNotSettable:      "not-settable",
	TagDeleteAttr:       "delete-attribute",
	TagAdminDefine:      "admin-define",
	TagInteger:          "integer",
	TagBoolean:          "boolean",
	TagEnum:             "enum",
	TagString:           "octetString",
	TagDateTime:         "dateTime",
	TagResolution:       "resolution",
	TagRange:            "rangeOfInteger",
	TagBeginCollection:  "collection",
	TagTextLang:         "textWithLanguage",
	TagNameLang:         "nameWithLanguage",
	TagEndCollection:    "endCollection",
	TagText:             "textWithoutLanguage",
	TagName:             "nameWithoutLanguage",
	TagKeyword:          "keyword",
	TagURI:              "uri",
	TagURIScheme:        "uriScheme",
	TagCharset:          "charset",
	TagLanguage:         "naturalLanguage",
	TagMimeType:         "mimeMediaType",
	TagMemberName:       "memberAttrName",
	TagExtension:        "extension",
}

var tagAliases = map[string]Tag{
	"operation":          TagOperationGroup,
	"job":                TagJobGroup,
	"end":                TagEnd,
	"printer":            TagPrinterGroup,
	"unsupported-group":  TagUnsupportedGroup,
	"subscription":       TagSubscriptionGroup,
	"event-notification": TagEventNotificationGroup,
	"resource":           TagResourceGroup,
	"document":           TagDocumentGroup,
	"system":             TagSystemGroup,
	"text":               TagText,
	"name":               TagName,
	"mimetype":           TagMimeType,
	"language":           TagLanguage,
	"string":             TagString,
	"date":               TagDateTime,
	"range":              TagRange,
	"textlang":           TagTextLang,
	"namelang":           TagNameLang,
}
