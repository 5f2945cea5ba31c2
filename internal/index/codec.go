package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// EncodeSnapshot serializes a snapshot into its two persisted parts: a
// binary vector blob (two uint32 headers for dimensions and row count, then
// little-endian float32 rows) and a JSON id list.
func EncodeSnapshot(snap *Snapshot) (vectors, ids []byte, err error) {
	ids, err = json.Marshal(snap.IDs)
	if err != nil {
		return nil, nil, fmt.Errorf("encode id list: %w", err)
	}

	vectors = make([]byte, 8+4*len(snap.Vectors))
	binary.LittleEndian.PutUint32(vectors[0:4], uint32(snap.Dimensions))
	binary.LittleEndian.PutUint32(vectors[4:8], uint32(len(snap.IDs)))
	for i, v := range snap.Vectors {
		binary.LittleEndian.PutUint32(vectors[8+4*i:], math.Float32bits(v))
	}
	return vectors, ids, nil
}

// DecodeSnapshot reverses EncodeSnapshot, verifying the two parts agree.
func DecodeSnapshot(vectors, ids []byte) (*Snapshot, error) {
	if len(vectors) < 8 {
		return nil, fmt.Errorf("%w: vector blob truncated", ErrSnapshotCorrupt)
	}
	dims := int(binary.LittleEndian.Uint32(vectors[0:4]))
	count := int(binary.LittleEndian.Uint32(vectors[4:8]))
	if len(vectors) != 8+4*dims*count {
		return nil, fmt.Errorf("%w: vector blob has wrong length", ErrSnapshotCorrupt)
	}

	var idList []string
	if err := json.Unmarshal(ids, &idList); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	if len(idList) != count {
		return nil, fmt.Errorf("%w: %d ids for %d rows", ErrSnapshotCorrupt, len(idList), count)
	}

	floats := make([]float32, dims*count)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(vectors[8+4*i:]))
	}

	return &Snapshot{Dimensions: dims, IDs: idList, Vectors: floats}, nil
}
