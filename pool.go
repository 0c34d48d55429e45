/* ippstream - resumable IPP message codec
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Pool of scratch buffers
 */

package ippstream

import (
	"github.com/algorand/go-deadlock"
)

// DefaultPool is the BufferPool, used by Decoder and Encoder
// when they have no own pool
var DefaultPool = &BufferPool{}

// Buffer is the scratch buffer, checked out of the BufferPool
// for the duration of a single Decode or Encode call
type Buffer struct {
	Data []byte // BufSize bytes of storage
	used bool   // Buffer is checked out
}

// BufferPool is the set of reusable scratch buffers.
//
// The pool grows as concurrent Decode/Encode calls overlap,
// and never shrinks. It is safe for concurrent use.
//
// The zero BufferPool is empty and ready for use
type BufferPool struct {
	lock    deadlock.Mutex // Access lock
	buffers []*Buffer      // All buffers ever allocated
}

// Acquire returns an exclusively owned buffer, reusing a free one
// when possible
func (pool *BufferPool) Acquire() *Buffer {
	pool.lock.Lock()
	defer pool.lock.Unlock()

	for _, buf := range pool.buffers {
		if !buf.used {
			buf.used = true
			return buf
		}
	}

	buf := &Buffer{Data: make([]byte, BufSize), used: true}
	pool.buffers = append(pool.buffers, buf)

	return buf
}

// Release returns the buffer back to the pool
func (pool *BufferPool) Release(buf *Buffer) {
	pool.lock.Lock()
	buf.used = false
	pool.lock.Unlock()
}

// Stats returns the total number of buffers in the pool and
// the number of buffers currently checked out
func (pool *BufferPool) Stats() (total, used int) {
	pool.lock.Lock()
	defer pool.lock.Unlock()

	for _, buf := range pool.buffers {
		if buf.used {
			used++
		}
	}

	return len(pool.buffers), used
}
