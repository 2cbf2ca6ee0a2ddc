// Package carfile reconstructs a single UnixFS file from a CAR (Content
// Addressed aRchive) stream, as produced by an IPFS trustless gateway.
//
// Two reconstruction engines are provided: ReconstructBuffered, which holds
// the whole decoded DAG in memory before writing, and ReconstructSeek, which
// writes leaf data as soon as it is the next expected byte range and resolves
// de-duplicated back-references by seeking within the already-written
// output.
//
// Directories, symlinks, HAMT-sharded directories, and fetching blocks over
// a network are out of scope; the input is always a pre-assembled CAR.
package carfile
