package lgbm

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// ForestFingerprint hashes the parts of forest that affect the emitted
// IR: tree structure, thresholds, leaf values, categorical bitsets, and
// the objective. Two forests with the same fingerprint compile to
// identical forest_root code, so callers can fold this into CachePath or
// any other cache key for the compiled object.
func ForestFingerprint(forest *Forest) string {
	h := sha256.New()
	var buf [8]byte

	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	writeFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}

	writeInt(forest.NumClasses)
	writeInt(len(forest.Features))
	for _, f := range forest.Features {
		if f.IsCategorical {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}
	h.Write([]byte(forest.objectiveRaw))

	writeInt(len(forest.Trees))
	for i := range forest.Trees {
		fingerprintNode(h, forest.Trees[i].Root, writeInt, writeFloat)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func fingerprintNode(h interface{ Write([]byte) (int, error) }, n Node, writeInt func(int), writeFloat func(float64)) {
	switch v := n.(type) {
	case *LeafNode:
		h.Write([]byte{0xFF})
		writeFloat(v.Value)
	case *DecisionNode:
		h.Write([]byte{0x01})
		writeInt(v.SplitFeature)
		if v.Type.Categorical {
			h.Write([]byte{1})
			for _, w := range v.CatThreshold {
				writeInt(int(w))
			}
		} else {
			h.Write([]byte{0})
			writeFloat(v.Threshold)
		}
		if v.Type.DefaultLeft {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
		writeInt(int(v.Type.MissingType))
		fingerprintNode(h, v.Left, writeInt, writeFloat)
		fingerprintNode(h, v.Right, writeInt, writeFloat)
	}
}
