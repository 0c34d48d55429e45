/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Common errors
 */

package ippstream

import (
	"errors"
)

// Error values for ippstream
var (
	ErrWouldBlock    = errors.New("No data available now")
	ErrTruncated     = errors.New("Message truncated")
	ErrNameLength    = errors.New("Bad attribute name length")
	ErrValueLength   = errors.New("Bad attribute value length")
	ErrSetTag        = errors.New("Value tag doesn't match attribute tag")
	ErrMemberName    = errors.New("Bad collection member name")
	ErrNoAttribute   = errors.New("Additional value without preceding attribute")
	ErrNoGroup       = errors.New("Attribute without a group")
	ErrNoName        = errors.New("Attribute without a name")
	ErrNoValue       = errors.New("Attribute without a value")
	ErrUnexpectedTag = errors.New("Unexpected tag")
	ErrValueType     = errors.New("Value doesn't match attribute tag")
	ErrTooDeep       = errors.New("Collections nested too deep")
	ErrState         = errors.New("Message is in the error state")
)
