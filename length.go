/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Encoded message length
 */

package ippstream

// Length returns the exact number of bytes the Encoder writes for
// the message. It is 0 for the nil message
func (m *Message) Length() int {
	return m.length(false)
}

// length computes encoded length of the top-level message or,
// if collection is true, of the nested collection
func (m *Message) length(collection bool) int {
	if m == nil {
		return 0
	}

	n := 0
	if !collection {
		n += 8 // Header
	}

	group := TagZero
	for _, attr := range m.attrs {
		// Group tag is written on group change, top-level only
		if !collection {
			switch {
			case attr.Group != group:
				group = attr.Group
				if group == TagZero {
					continue
				}
				n++
			case group == TagZero:
				continue
			}
		}

		if attr.Name == "" {
			continue
		}

		// Per value: tag(1) name-length(2) value-length(2).
		// Members also have the member-name entry:
		// tag(1) name-length(2) value-length(2)
		n += len(attr.Name)
		n += 5 * len(attr.Values)
		if collection {
			n += 5
		}

		for _, v := range attr.Values {
			if c, ok := v.(Collection); ok {
				n += c.Msg.length(true)
			} else {
				n += v.payloadLen()
			}
		}
	}

	if collection {
		n += 5 // 0x37 0x00 0x00 0x00 0x00
	} else {
		n++ // 0x03
	}

	return n
}
