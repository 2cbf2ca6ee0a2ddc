package carfile

import (
	"context"
	"io"

	"github.com/ipfs/go-cid"
)

// sparseWriteThreshold is the minimum run length of zero bytes worth
// punching a hole for instead of writing verbatim.
const sparseWriteThreshold = 32

// Sink is what ReconstructSeek writes into: a random-access destination
// that supports both writing and repositioning, so that de-duplicated
// leaves already written once can be re-emitted at a later offset by
// seeking back to read them rather than by re-buffering their bytes.
type Sink interface {
	io.Writer
	io.Seeker
	io.ReaderAt
}

// ReconstructSeek reconstructs a single UnixFS file from source, writing it
// to sink without holding the whole file in memory. It writes each leaf as
// soon as it becomes the next expected byte range, and resolves
// back-references to already-written leaves (the same block reachable from
// more than one place in the DAG) by reading the bytes back out of sink and
// rewriting them at the new offset, rather than caching them separately.
//
// Unlike ReconstructBuffered, source must deliver blocks in an order
// consistent with the file's layout: each link node before the leaves it
// references, and leaves in file order. A leaf whose CID is not in the
// frontier when it arrives is discarded, not held, and the stream may not
// end with frontier entries still pending.
//
// All-zero leaves of at least 32 bytes are written as a filesystem hole
// (seek forward, write a single trailing zero byte) rather than verbatim,
// producing byte-identical output on sinks that support sparse files and
// correct, if less efficient, output on sinks that don't.
func ReconstructSeek(ctx context.Context, source CarSource, sink Sink, opts ...Option) error {
	cfg := newConfig(opts)

	root, err := resolveRoot(source.Roots(), cfg.expectedRoot)
	if err != nil {
		return err
	}
	cfg.logger.Debugf("reconstructing %s seek", root)

	t := newTracker(root)
	written := make(map[cid.Cid]writtenSpan, 64)
	var outPtr int64
	var totalWritten int

	for {
		if err := ctx.Err(); err != nil {
			return ioErr(err)
		}

		c, raw, err := source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		n, err := decodeUnixFSBlock(c, raw)
		if err != nil {
			return err
		}

		if c.Equals(root) && !n.isFileType() {
			return rootCidIsNotFile()
		}

		if n.Kind == leafNode {
			switch t.find(c) {
			case isNext:
				// proceed below
			case notNext:
				return dataNodesNotSorted(c)
			case unknownCid:
				continue
			}

			size := len(n.Data)
			if cfg.writeLimit > 0 && totalWritten+size > cfg.writeLimit {
				return writeLimitExceeded(totalWritten+size, cfg.writeLimit)
			}

			if err := sparseWrite(sink, n.Data); err != nil {
				return err
			}
			totalWritten += size

			written[c] = writtenSpan{offset: outPtr, size: size}
			outPtr += int64(size)
			if err := t.advance(); err != nil {
				return err
			}
		} else {
			children := make([]cid.Cid, len(n.Links))
			for i, l := range n.Links {
				children[i] = l.Cid
			}
			written[c] = writtenSpan{links: children}
		}

		if err := drainFrontier(t, written, sink, &outPtr, &totalWritten, cfg.writeLimit); err != nil {
			return err
		}
	}

	if tail := t.remaining(); tail != nil {
		return pendingLinksAtEOF(tail)
	}
	return nil
}

// writtenSpan records what is known about a block the seek engine has
// already processed: either the (offset, size) of its data already written
// to sink, or its ordered child CIDs if it was a link node.
type writtenSpan struct {
	offset int64
	size   int
	links  []cid.Cid
}

func (w writtenSpan) isLinks() bool {
	return w.links != nil
}

// drainFrontier resolves as much of the tracker's frontier as currently
// possible: for each head entry already known, either replay its written
// bytes (data span) or splice its children into the frontier (link span),
// stopping at the first head entry whose block has not arrived yet.
func drainFrontier(t *tracker, known map[cid.Cid]writtenSpan, sink Sink, outPtr *int64, totalWritten *int, writeLimit int) error {
	for {
		head, ok := t.first()
		if !ok {
			return nil
		}
		span, ok := known[head]
		if !ok {
			return nil
		}

		if span.isLinks() {
			t.insertReplace(head, span.links)
			continue
		}

		if writeLimit > 0 && *totalWritten+span.size > writeLimit {
			return writeLimitExceeded(*totalWritten+span.size, writeLimit)
		}

		if err := copySelf(sink, span.offset, *outPtr, span.size); err != nil {
			return err
		}
		*totalWritten += span.size
		*outPtr += int64(span.size)
		if err := t.advance(); err != nil {
			return err
		}
	}
}

// sparseWrite writes data to sink at its current position, punching a hole
// instead of writing verbatim when data is a long enough run of zeros.
func sparseWrite(sink Sink, data []byte) error {
	if len(data) >= sparseWriteThreshold && isAllZero(data) {
		if _, err := sink.Seek(int64(len(data)-1), io.SeekCurrent); err != nil {
			return ioErr(err)
		}
		if _, err := sink.Write([]byte{0}); err != nil {
			return ioErr(err)
		}
		return nil
	}
	if _, err := sink.Write(data); err != nil {
		return ioErr(err)
	}
	return nil
}

// copySelf duplicates the size bytes already written at srcOffset to a new
// position at destOffset within sink, applying the same sparse-write rule
// as a fresh leaf write.
func copySelf(sink Sink, srcOffset, destOffset int64, size int) error {
	buf := make([]byte, size)
	if _, err := sink.ReadAt(buf, srcOffset); err != nil && err != io.EOF {
		return ioErr(err)
	}
	if _, err := sink.Seek(destOffset, io.SeekStart); err != nil {
		return ioErr(err)
	}
	return sparseWrite(sink, buf)
}
