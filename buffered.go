package carfile

import (
	"context"
	"io"

	"github.com/ipfs/go-cid"
)

// ReconstructBuffered reconstructs a single UnixFS file from source,
// writing it to sink. It decodes and holds every block in memory as it
// arrives, then walks the DAG from the resolved root once the stream is
// exhausted, so source need not deliver blocks in any particular order as
// long as every referenced child eventually appears.
//
// Use WithMaxBuffer to bound memory use; use WithExpectedRoot to assert the
// CAR's root CID matches a value the caller already trusts.
func ReconstructBuffered(ctx context.Context, source CarSource, sink io.Writer, opts ...Option) error {
	cfg := newConfig(opts)

	root, err := resolveRoot(source.Roots(), cfg.expectedRoot)
	if err != nil {
		return err
	}
	cfg.logger.Debugf("reconstructing %s buffered", root)

	nodes := make(map[cid.Cid]*node, 64)
	var bufferedLen int

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
			if cfg.maxBuffer > 0 {
				bufferedLen += leafLen(n)
				if bufferedLen > cfg.maxBuffer {
					return maxBufferedData(cfg.maxBuffer)
				}
			}
		}

		nodes[c] = n
	}

	if _, ok := nodes[root]; !ok {
		return missingNode(root)
	}

	return writeTree(nodes, root, sink)
}

// writeTree performs the post-order DFS write-out: for a leaf, write its
// bytes; for a link node, recurse into each child in link order.
func writeTree(nodes map[cid.Cid]*node, root cid.Cid, sink io.Writer) error {
	n, ok := nodes[root]
	if !ok {
		return missingNode(root)
	}
	if n.Kind == leafNode {
		if len(n.Data) == 0 {
			return nil
		}
		_, err := sink.Write(n.Data)
		if err != nil {
			return ioErr(err)
		}
		return nil
	}
	for _, l := range n.Links {
		if err := writeTree(nodes, l.Cid, sink); err != nil {
			return err
		}
	}
	return nil
}
