/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * RFC 1903 dates
 */

package ippstream

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Date is the Value that represents date and time in the RFC 1903
// (DateAndTime) format:
//
//	octets  contents                  range
//	------  --------                  -----
//	  1-2   year                      0..65535
//	   3    month                     1..12
//	   4    day                       1..31
//	   5    hour                      0..23
//	   6    minutes                   0..59
//	   7    seconds                   0..60
//	   8    deci-seconds              0..9
//	   9    direction from UTC        '+' / '-'
//	  10    hours from UTC            0..13
//	  11    minutes from UTC          0..59
//
// The bytes are kept as is, so the value round-trips exactly even
// if the peer sent an out-of-range field.
//
// Use with: TagDateTime
type Date [11]byte

// TimeToDate converts time.Time into Date. The time is converted
// to UTC, with deci-seconds truncated to zero
func TimeToDate(t time.Time) Date {
	d := dateFromTime(t.UTC())
	d[7] = 0
	return d
}

// dateFromTime converts time.Time into Date, keeping the time zone
// offset of t
func dateFromTime(t time.Time) Date {
	_, off := t.Zone()
	sign := byte('+')
	if off < 0 {
		off = -off
		sign = '-'
	}

	var d Date
	binary.BigEndian.PutUint16(d[0:2], uint16(t.Year()))
	d[2] = byte(t.Month())
	d[3] = byte(t.Day())
	d[4] = byte(t.Hour())
	d[5] = byte(t.Minute())
	d[6] = byte(t.Second())
	d[7] = byte(t.Nanosecond() / 100000000)
	d[8] = sign
	d[9] = byte(off / 3600)
	d[10] = byte((off / 60) % 60)

	return d
}

// Time converts Date into time.Time in the time zone, encoded
// in the Date
func (d Date) Time() time.Time {
	off := 3600*int(d[9]) + 60*int(d[10])
	sign := byte('+')
	if d[8] == '-' {
		off = -off
		sign = '-'
	}

	name := fmt.Sprintf("UTC%c%d", sign, d[9])
	if d[10] != 0 {
		name += fmt.Sprintf(":%d", d[10])
	}

	return time.Date(
		int(binary.BigEndian.Uint16(d[0:2])),
		time.Month(d[2]),
		int(d[3]),
		int(d[4]),
		int(d[5]),
		int(d[6]),
		int(d[7])*100000000,
		time.FixedZone(name, off),
	)
}

// Valid checks that all Date fields are within their ranges
func (d Date) Valid() bool {
	switch {
	case d[2] < 1 || d[2] > 12:
	case d[3] < 1 || d[3] > 31:
	case d[4] > 23:
	case d[5] > 59:
	case d[6] > 60:
	case d[7] > 9:
	case d[8] != '+' && d[8] != '-':
	case d[9] > 13:
	case d[10] > 59:
	default:
		return true
	}
	return false
}

// String converts Date value to string
func (d Date) String() string {
	if !d.Valid() {
		return fmt.Sprintf("%x", d[:])
	}
	return d.Time().Format(time.RFC3339)
}

// Kind returns KindDate
func (Date) Kind() Kind { return KindDate }

func (Date) payloadLen() int { return 11 }

func (d Date) appendPayload(buf []byte) []byte {
	return append(buf, d[:]...)
}
