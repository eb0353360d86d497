// Package spill provides a byte buffer that keeps small content in memory and
// transparently spills to a backing file once a memory threshold is exceeded.
//
// # Writing
//
//	buf, err := spill.New(spill.WithMemoryThreshold(64 * 1024))
//	if err != nil { ... }
//	defer buf.Close()
//
//	buf.Write(header)
//	buf.Write(payload) // payloads larger than the threshold go straight to disk
//
// Content is always the backing file followed by the memory tail, and the tail
// never grows past the threshold. A Buffer also implements wire.Sink, so a
// wire.Encoder can write protocol values into it without intermediate copies.
//
// # Reading
//
// Views (Memory, Bytes, Segments, NewReader, Map) and drains (DrainTo,
// DrainChunked, DrainPipelined, DrainAsync, DrainCompressed, Checksum, WriteTo)
// open a read session. While a session is open the buffer is in StateReadMode
// and rejects writes and Clear with errs.ErrInvalidState; only one session may
// be open at a time.
//
// Views over a spilled buffer first move the memory tail to the backing file.
// Drains copy the file and then the tail without moving anything, so repeated
// drains yield identical bytes.
//
//	seq, err := buf.Segments(0)
//	if err != nil { ... }
//	for page, err := range seq.All() {
//	    if err != nil { ... }
//	    process(page)
//	}
//	seq.Close() // writes are accepted again
//
// A Buffer is not safe for concurrent use.
package spill
