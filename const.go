/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Common constants
 */

package ippstream

const (
	// MaxLength is the maximum length of a single name or value
	// on the wire. The 2-byte length field is signed on some
	// implementations, hence the limit.
	MaxLength = 32767

	// BufSize is the capacity of the scratch buffers, used
	// by Decoder and Encoder. It holds the largest single field
	// with its 2-byte length
	BufSize = MaxLength + 2

	// DefaultMaxDepth is the default limit of nested collections
	DefaultMaxDepth = 32

	// DefaultVersion is the protocol version of new messages (1.1)
	DefaultVersion Version = 0x0101

	// emptyReadsLimit is the number of consecutive empty reads,
	// after which blocking Decoder gives up with io.ErrNoProgress
	emptyReadsLimit = 100
)
