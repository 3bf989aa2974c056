// Package blobstore bridges the indexed view and the content-addressed blob
// store: a CIDv0 handle codec for on-chain storage, and a fallback resolver
// that fills fields the indexer has not caught up on yet.
package blobstore

import (
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"orgmachine/orgmachine"
)

// ZeroHandle is the 32 zero bytes meaning "no blob" on chain.
var ZeroHandle [32]byte

// EncodeHandle packs a base58 CIDv0 ("Qm...") into the 32 bytes stored on
// chain by stripping the two-byte multihash prefix (0x12 0x20). The empty
// handle encodes to zero bytes.
func EncodeHandle(handle orgmachine.BlobHandle) ([32]byte, error) {
	var out [32]byte
	if handle == "" {
		return out, nil
	}
	if strings.HasPrefix(handle, "0x") {
		return out, fmt.Errorf("raw 0x handle cannot be encoded: %s", handle)
	}
	c, err := cid.Decode(handle)
	if err != nil {
		return out, err
	}
	decoded, err := mh.Decode(c.Hash())
	if err != nil {
		return out, err
	}
	if decoded.Code != mh.SHA2_256 || decoded.Length != 32 {
		return out, fmt.Errorf("handle is not a sha2-256 CIDv0: %s", handle)
	}
	copy(out[:], decoded.Digest)
	return out, nil
}

// DecodeHandle reverses EncodeHandle: 32 bytes back to the base58 CIDv0.
// Zero bytes decode to the empty handle.
func DecodeHandle(b [32]byte) (orgmachine.BlobHandle, error) {
	if b == ZeroHandle {
		return "", nil
	}
	encoded, err := mh.Encode(b[:], mh.SHA2_256)
	if err != nil {
		return "", err
	}
	return cid.NewCidV0(encoded).String(), nil
}

// Fetchable reports whether a handle can be resolved against the blob store.
// Handles starting with 0x are raw bytes from a newer indexer that did not
// round-trip; they produce the placeholder.
func Fetchable(handle orgmachine.BlobHandle) bool {
	if handle == "" || strings.HasPrefix(handle, "0x") {
		return false
	}
	_, err := cid.Decode(handle)
	return err == nil
}
