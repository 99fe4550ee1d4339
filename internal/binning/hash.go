// Package binning assigns every vertex of each label to one of B
// statistics buckets: either a cheap, order-free hash binning, or a
// greedy, sample-driven binning that invests its bucket budget where
// join-key skew is largest.
package binning

import (
	"encoding/binary"

	"pathce/internal/common"
	"pathce/internal/graph"
	"pathce/internal/schema"
)

// murmur3_32 is Austin Appleby's MurmurHash3 (x86, 32-bit output)
// seeded identically to the catalog builder's hash binning (seed 0).
// No Go murmur3 package is available, so this is a direct, self
// contained port of the reference algorithm's four-byte-block path
// (every call site hashes an 8-byte little-endian vertex id, i.e.
// exactly two full blocks with no tail).
func murmur3_32(data []byte, seed uint32) uint32 {
	const (
		c1 = 0xcc9e2d51
		c2 = 0x1b873593
	)
	h := seed
	nblocks := len(data) / 4
	for i := 0; i < nblocks; i++ {
		k := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		k *= c1
		k = (k << 15) | (k >> 17)
		k *= c2
		h ^= k
		h = (h << 13) | (h >> 19)
		h = h*5 + 0xe6546b64
	}
	tail := data[nblocks*4:]
	var k uint32
	switch len(tail) {
	case 3:
		k ^= uint32(tail[2]) << 16
		fallthrough
	case 2:
		k ^= uint32(tail[1]) << 8
		fallthrough
	case 1:
		k ^= uint32(tail[0])
		k *= c1
		k = (k << 15) | (k >> 17)
		k *= c2
		h ^= k
	}
	h ^= uint32(len(data))
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

// HashBinning assigns every vertex of every schema vertex label to
// bucket hash(id) mod buckets, independent of join-key skew.
func HashBinning(s *schema.Schema, g *graph.LabeledGraph, buckets int) common.GlobalBucketMap {
	out := make(common.GlobalBucketMap, len(s.Vertices()))
	for _, v := range s.Vertices() {
		vertices, _ := g.Vertices(v.Label)
		local := make(common.LocalBucketMap, len(vertices))
		for _, id := range vertices {
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], uint64(id))
			h := murmur3_32(buf[:], 0)
			local[id] = common.BucketId(uint64(h) % uint64(buckets))
		}
		out[v.Label] = local
	}
	return out
}
