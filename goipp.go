/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Conversion to and from goipp messages
 */

package ippstream

import (
	"github.com/OpenPrinting/goipp"
)

// ToGoipp converts the message into goipp.Message. Groups are
// preserved, including repeated groups, divided by separators.
// Attributes without a group are dropped, as Encoder does
func (m *Message) ToGoipp() *goipp.Message {
	gm := &goipp.Message{
		Version:   goipp.Version(m.Version),
		Code:      goipp.Code(m.Code),
		RequestID: m.RequestID,
	}

	group := TagZero
	for _, attr := range m.attrs {
		if attr.Group != group {
			group = attr.Group
			if group != TagZero {
				gm.Groups.Add(goipp.Group{Tag: goipp.Tag(group)})
			}
		}

		if group == TagZero || attr.Name == "" {
			continue
		}

		ga := attr.toGoipp()
		gm.Groups[len(gm.Groups)-1].Add(ga)
		if attrs := goippGroupAttrs(gm, group); attrs != nil {
			attrs.Add(ga)
		}
	}

	return gm
}

// FromGoipp converts goipp.Message into the Message. Repeated groups
// are divided by separators
func FromGoipp(gm *goipp.Message) *Message {
	m := NewMessage()
	m.Version = Version(gm.Version)
	m.Code = Code(gm.Code)
	m.RequestID = gm.RequestID

	groups := gm.Groups
	if groups == nil {
		groups = goippNamedGroups(gm)
	}

	prev := TagZero
	for _, g := range groups {
		group := Tag(g.Tag)
		if group == prev {
			m.AddSeparator()
		}
		prev = group

		for _, ga := range g.Attrs {
			m.Add(attrFromGoipp(ga, group))
		}
	}

	m.current, m.prev = -1, -1

	return m
}

// toGoipp converts Attribute into goipp.Attribute
func (attr *Attribute) toGoipp() goipp.Attribute {
	ga := goipp.Attribute{Name: attr.Name}

	for _, v := range attr.Values {
		tag, err := attr.wireTag(v)
		if err != nil {
			tag = attr.ValueTag
		}

		ga.Values.Add(goipp.Tag(tag), valueToGoipp(v, tag))
	}

	return ga
}

// valueToGoipp converts Value into goipp.Value
func valueToGoipp(v Value, tag Tag) goipp.Value {
	switch v := v.(type) {
	case Integer:
		return goipp.Integer(v)
	case Boolean:
		return goipp.Boolean(v)
	case LangString:
		return goipp.TextWithLang{Lang: v.Lang, Text: v.Text}
	case Date:
		return goipp.Time{Time: v.Time()}
	case Resolution:
		return goipp.Resolution{
			Xres:  int(v.X),
			Yres:  int(v.Y),
			Units: goipp.Units(v.Units),
		}
	case Range:
		return goipp.Range{Lower: int(v.Lower), Upper: int(v.Upper)}
	case Collection:
		var col goipp.Collection
		if v.Msg != nil {
			for _, member := range v.Msg.attrs {
				if member.Name != "" {
					col.Add(member.toGoipp())
				}
			}
		}
		return col
	}

	// String and Opaque
	var data []byte
	switch v := v.(type) {
	case String:
		if goipp.Tag(tag).Type() == goipp.TypeString {
			return goipp.String(v)
		}
		data = []byte(v)
	case Opaque:
		data = v
	}

	if goipp.Tag(tag).Type() == goipp.TypeVoid {
		return goipp.Void{}
	}

	return goipp.Binary(data)
}

// attrFromGoipp converts goipp.Attribute into Attribute
func attrFromGoipp(ga goipp.Attribute, group Tag) *Attribute {
	attr := &Attribute{Name: ga.Name, Group: group}

	for i, gv := range ga.Values {
		if i == 0 {
			attr.ValueTag = Tag(gv.T)
		}
		attr.Values = append(attr.Values, valueFromGoipp(gv.V))
	}

	return attr
}

// valueFromGoipp converts goipp.Value into Value
func valueFromGoipp(gv goipp.Value) Value {
	switch gv := gv.(type) {
	case goipp.Integer:
		return Integer(gv)
	case goipp.Boolean:
		return Boolean(gv)
	case goipp.String:
		return String(gv)
	case goipp.TextWithLang:
		return LangString{Lang: gv.Lang, Text: gv.Text}
	case goipp.Time:
		return dateFromTime(gv.Time)
	case goipp.Resolution:
		return Resolution{
			X:     int32(gv.Xres),
			Y:     int32(gv.Yres),
			Units: Units(gv.Units),
		}
	case goipp.Range:
		return Range{Lower: int32(gv.Lower), Upper: int32(gv.Upper)}
	case goipp.Binary:
		return Opaque(append([]byte(nil), gv...))
	case goipp.Collection:
		col := NewMessage()
		for _, member := range gv {
			col.Add(attrFromGoipp(member, TagZero))
		}
		col.current, col.prev = -1, -1
		return Collection{col}
	}

	return Opaque(nil)
}

// goippGroupAttrs returns the named per-group field of goipp.Message
func goippGroupAttrs(gm *goipp.Message, group Tag) *goipp.Attributes {
	switch group {
	case TagOperationGroup:
		return &gm.Operation
	case TagJobGroup:
		return &gm.Job
	case TagPrinterGroup:
		return &gm.Printer
	case TagUnsupportedGroup:
		return &gm.Unsupported
	case TagSubscriptionGroup:
		return &gm.Subscription
	case TagEventNotificationGroup:
		return &gm.EventNotification
	case TagResourceGroup:
		return &gm.Resource
	case TagDocumentGroup:
		return &gm.Document
	case TagSystemGroup:
		return &gm.System
	}

	return nil
}

// goippNamedGroups collects groups from the named per-group fields
// of goipp.Message, for messages with nil Groups
func goippNamedGroups(gm *goipp.Message) goipp.Groups {
	var groups goipp.Groups

	for _, tag := range []Tag{
		TagOperationGroup, TagJobGroup, TagPrinterGroup,
		TagUnsupportedGroup, TagSubscriptionGroup,
		TagEventNotificationGroup, TagResourceGroup,
		TagDocumentGroup, TagSystemGroup,
	} {
		if attrs := *goippGroupAttrs(gm, tag); attrs != nil {
			groups.Add(goipp.Group{Tag: goipp.Tag(tag), Attrs: attrs})
		}
	}

	return groups
}
