package testutil

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-unixfsnode/data/builder"
	dagpb "github.com/ipld/go-codec-dagpb"
	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/datamodel"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"github.com/jbenet/go-random"
	"github.com/stretchr/testify/require"
)

// TestUnixFSFile is a generated UnixFS file DAG, built with the same
// chunker/layout code a real UnixFS importer uses, together with every
// block that makes it up.
type TestUnixFSFile struct {
	t        testing.TB
	Root     cid.Cid
	FileData []byte
	blocks   map[cid.Cid][]byte
	// preOrder lists every block's CID in the order a trustless gateway
	// would deliver them: each link node before the children it
	// references, children in link order. CARs built from this order
	// exercise the seek reconstructor as well as the buffered one.
	preOrder []cid.Cid
}

// BuildUnixFSFile chunks size pseudo-random bytes into a UnixFS file DAG
// and records every resulting block.
func BuildUnixFSFile(t testing.TB, size int) *TestUnixFSFile {
	return BuildUnixFSFileFromBytes(t, RandomBytes(int64(size)))
}

// BuildUnixFSFileFromBytes is like BuildUnixFSFile but chunks caller-supplied
// bytes, for fixtures that need specific content (e.g. all-zero runs to
// exercise the sparse-write rule).
func BuildUnixFSFileFromBytes(t testing.TB, data []byte) *TestUnixFSFile {
	store := &recordingStorage{blocks: make(map[cid.Cid][]byte)}
	ls := cidlink.DefaultLinkSystem()
	ls.StorageReadOpener = store.OpenRead
	ls.StorageWriteOpener = store.OpenWrite

	root, _, err := builder.BuildUnixFSFile(bytes.NewReader(data), "", &ls)
	require.NoError(t, err, "building unixfs file dag")
	rootCid := root.(cidlink.Link).Cid

	pre, err := preOrder(rootCid, store.blocks)
	require.NoError(t, err, "ordering unixfs blocks")

	return &TestUnixFSFile{
		t:        t,
		Root:     rootCid,
		FileData: data,
		blocks:   store.blocks,
		preOrder: pre,
	}
}

// preOrder walks the dag-pb link graph from root, visiting each node before
// its children and children in link order, recording every CID once.
func preOrder(root cid.Cid, blocks map[cid.Cid][]byte) ([]cid.Cid, error) {
	var out []cid.Cid
	seen := make(map[cid.Cid]bool)

	var visit func(c cid.Cid) error
	visit = func(c cid.Cid) error {
		if seen[c] {
			return nil
		}
		seen[c] = true
		out = append(out, c)

		raw, ok := blocks[c]
		if !ok {
			return nil
		}
		for _, l := range dagpbLinksOf(raw) {
			cl := l.Hash.Must().Link().(cidlink.Link)
			if err := visit(cl.Cid); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(root); err != nil {
		return nil, err
	}
	return out, nil
}

func dagpbLinksOf(raw []byte) []dagpb.PBLink {
	b := dagpb.Type.PBNode.NewBuilder()
	if err := dagpb.DecodeBytes(b, raw); err != nil {
		return nil
	}
	pbNode := b.Build().(dagpb.PBNode)
	links := make([]dagpb.PBLink, 0, int(pbNode.Links.Length()))
	it := pbNode.Links.ListIterator()
	for !it.Done() {
		_, v, err := it.Next()
		if err != nil {
			break
		}
		links = append(links, v.(dagpb.PBLink))
	}
	return links
}

// CARBytes serializes the DAG as a CAR v1 byte stream with a single root,
// in pre-order (parents before children) so both the buffered and the seek
// reconstructor can consume it.
func (f *TestUnixFSFile) CARBytes() []byte {
	blocks := make([]Block, len(f.preOrder))
	for i, c := range f.preOrder {
		blocks[i] = Block{Cid: c, Data: f.blocks[c]}
	}
	b, err := BuildCAR([]cid.Cid{f.Root}, blocks)
	require.NoError(f.t, err)
	return b
}

// ShuffledCARBytes serializes the same DAG but with adjacent pairs of leaf
// blocks swapped, used to exercise the buffered reconstructor's tolerance
// of non-preorder input. Link nodes still precede the children the seek
// reconstructor needs, since the swap is confined to runs of leaves.
func (f *TestUnixFSFile) ShuffledCARBytes() []byte {
	order := append([]cid.Cid(nil), f.preOrder...)
	isLeaf := func(c cid.Cid) bool {
		return len(dagpbLinksOf(f.blocks[c])) == 0
	}
	for i := 0; i+1 < len(order); i += 2 {
		if isLeaf(order[i]) && isLeaf(order[i+1]) {
			order[i], order[i+1] = order[i+1], order[i]
		}
	}

	blocks := make([]Block, len(order))
	for i, c := range order {
		blocks[i] = Block{Cid: c, Data: f.blocks[c]}
	}
	b, err := BuildCAR([]cid.Cid{f.Root}, blocks)
	require.NoError(f.t, err)
	return b
}

// Block returns the raw bytes of one block of the generated DAG by CID.
func (f *TestUnixFSFile) Block(c cid.Cid) []byte {
	return f.blocks[c]
}

// recordingStorage is an ipld.LinkSystem backing store that keeps every
// block BuildUnixFSFile writes, keyed by CID, in addition to serving reads
// back to the builder for any node it needs to revisit.
type recordingStorage struct {
	mem    cidlink.Memory
	blocks map[cid.Cid][]byte
}

func (s *recordingStorage) OpenRead(lnkCtx ipld.LinkContext, lnk datamodel.Link) (io.Reader, error) {
	return s.mem.OpenRead(lnkCtx, lnk)
}

func (s *recordingStorage) OpenWrite(lnkCtx ipld.LinkContext, lnk datamodel.Link) (io.Writer, ipld.BlockWriteCommitter, error) {
	w, committer, err := s.mem.OpenWrite(lnkCtx, lnk)
	if err != nil {
		return nil, nil, err
	}
	wrapped := func(lnk datamodel.Link) error {
		if err := committer(lnk); err != nil {
			return err
		}
		cl := lnk.(cidlink.Link)
		s.blocks[cl.Cid] = s.mem.Bag[lnk.Binary()]
		return nil
	}
	return w, wrapped, nil
}

// Block is one CID-addressed block of a hand-assembled CAR fixture, for
// tests that need to control a DAG's exact shape (repeated child CIDs,
// deliberately truncated layouts) rather than going through
// BuildUnixFSFile's chunker.
type Block struct {
	Cid  cid.Cid
	Data []byte
}

// BuildCAR serializes roots and blocks as a CAR v1 byte stream, in the
// order given; callers control that order directly, so this is also the
// right tool for building deliberately out-of-order or truncated fixtures.
func BuildCAR(roots []cid.Cid, blocks []Block) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCarHeader(&buf, roots); err != nil {
		return nil, err
	}
	for _, b := range blocks {
		if err := writeCarSection(&buf, b.Cid, b.Data); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// writeCarHeader writes a CAR v1 header: a varint length prefix followed by
// a DAG-CBOR encoded {"roots": [...], "version": 1} map, mirroring the
// framing rs-car and go-car both implement.
func writeCarHeader(w *bytes.Buffer, roots []cid.Cid) error {
	nb := basicnode.Prototype.Map.NewBuilder()
	ma, err := nb.BeginMap(2)
	if err != nil {
		return err
	}
	rootsAsm, err := ma.AssembleEntry("roots")
	if err != nil {
		return err
	}
	rootsList, err := rootsAsm.BeginList(int64(len(roots)))
	if err != nil {
		return err
	}
	for _, r := range roots {
		if err := rootsList.AssembleValue().AssignLink(cidlink.Link{Cid: r}); err != nil {
			return err
		}
	}
	if err := rootsList.Finish(); err != nil {
		return err
	}
	versionAsm, err := ma.AssembleEntry("version")
	if err != nil {
		return err
	}
	if err := versionAsm.AssignInt(1); err != nil {
		return err
	}
	if err := ma.Finish(); err != nil {
		return err
	}

	var hb bytes.Buffer
	if err := dagcbor.Encode(nb.Build(), &hb); err != nil {
		return err
	}
	return writeLdSection(w, hb.Bytes())
}

// writeCarSection writes one CAR block: a varint length prefix followed by
// the CID bytes and the raw block data.
func writeCarSection(w *bytes.Buffer, c cid.Cid, data []byte) error {
	return writeLdSection(w, append(c.Bytes(), data...))
}

func writeLdSection(w *bytes.Buffer, payload []byte) error {
	lenBuf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(lenBuf, uint64(len(payload)))
	if _, err := w.Write(lenBuf[:n]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

var seedSeq int64

// RandomBytes returns a byte slice of the given size with deterministic
// pseudo-random content, advancing a package-level seed so repeated calls
// within one test don't produce identical runs.
func RandomBytes(n int64) []byte {
	data := new(bytes.Buffer)
	_ = random.WritePseudoRandomBytes(n, data, seedSeq)
	seedSeq++
	return data.Bytes()
}
