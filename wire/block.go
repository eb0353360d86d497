package wire

import "github.com/arloliu/spillio/pool"

// Block is a length-prefixed payload read into a pooled buffer.
//
// The zero Block is empty and holds no buffer. Release returns the buffer to
// the allocator it came from; the bytes must not be used afterwards.
type Block struct {
	buf   *pool.ByteBuffer
	alloc pool.Allocator
}

// Bytes returns the payload.
func (b Block) Bytes() []byte {
	if b.buf == nil {
		return nil
	}

	return b.buf.B
}

// Len returns the payload length.
func (b Block) Len() int {
	if b.buf == nil {
		return 0
	}

	return b.buf.Len()
}

// Release returns the payload buffer to its allocator. It is safe to call more than once.
func (b *Block) Release() {
	if b.buf == nil {
		return
	}
	b.alloc.Put(b.buf)
	b.buf = nil
	b.alloc = nil
}
