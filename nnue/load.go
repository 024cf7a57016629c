package nnue

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
)

// Header is the CBNF 64-byte fixed header (spec §6). Parameter blocks
// follow, each padded to a 64-byte boundary.
type Header struct {
	Magic             [4]byte
	Version           uint16
	Flags             uint16
	Arch              uint8
	L1Activation      uint8
	HiddenSize        uint16
	InputBucketCount  uint8
	OutputBucketCount uint8
	NameLength        uint8
	Name              [48]byte
}

const headerSize = 64
const magicCBNF = "CBNF"

// ReadLittleEndian reads a single little-endian integer, grounded on
// sfnnue's nnue_common.go generic reader.
func readLittleEndian[T int16 | uint16 | int32 | uint32 | uint8](r io.Reader) (T, error) {
	var v T
	var err = binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readLittleEndianSlice[T int16 | uint16 | int32 | uint32](r io.Reader, out []T) error {
	return binary.Read(r, binary.LittleEndian, out)
}

// Load reads a CBNF network file from r. On any header mismatch against
// the compile-time constants (magic, version, hidden size, bucket counts)
// it returns an error rather than the network — callers must fall back to
// DefaultNetwork per spec §7.
func Load(r io.Reader) (*Network, error) {
	var hdr Header
	var buf = make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("nnue: reading header: %w", err)
	}
	copy(hdr.Magic[:], buf[0:4])
	hdr.Version = binary.LittleEndian.Uint16(buf[4:6])
	hdr.Flags = binary.LittleEndian.Uint16(buf[6:8])
	hdr.Arch = buf[9]
	hdr.L1Activation = buf[10]
	hdr.HiddenSize = binary.LittleEndian.Uint16(buf[11:13])
	hdr.InputBucketCount = buf[13]
	hdr.OutputBucketCount = buf[14]
	hdr.NameLength = buf[15]
	copy(hdr.Name[:], buf[16:64])

	if string(hdr.Magic[:]) != magicCBNF {
		return nil, fmt.Errorf("nnue: bad magic %q, want %q", hdr.Magic[:], magicCBNF)
	}
	if hdr.Version != 1 {
		return nil, fmt.Errorf("nnue: unsupported version %d", hdr.Version)
	}
	if int(hdr.HiddenSize) != Layer1Size {
		return nil, fmt.Errorf("nnue: hidden size %d != compiled Layer1Size %d", hdr.HiddenSize, Layer1Size)
	}
	if int(hdr.InputBucketCount) != InputBuckets {
		return nil, fmt.Errorf("nnue: input bucket count %d != compiled InputBuckets %d", hdr.InputBucketCount, InputBuckets)
	}
	if int(hdr.OutputBucketCount) != OutputBuckets {
		return nil, fmt.Errorf("nnue: output bucket count %d != compiled OutputBuckets %d", hdr.OutputBucketCount, OutputBuckets)
	}

	var n = &Network{}
	if err := readLittleEndianSlice(r, n.FeatureWeights[:]); err != nil {
		return nil, fmt.Errorf("nnue: reading feature weights: %w", err)
	}
	if err := readLittleEndianSlice(r, n.FeatureBiases[:]); err != nil {
		return nil, fmt.Errorf("nnue: reading feature biases: %w", err)
	}
	for b := 0; b < OutputBuckets; b++ {
		if err := readLittleEndianSlice(r, n.OutputWeights[b][:]); err != nil {
			return nil, fmt.Errorf("nnue: reading output weights for bucket %d: %w", b, err)
		}
	}
	for b := 0; b < OutputBuckets; b++ {
		v, err := readLittleEndian[int32](r)
		if err != nil {
			return nil, fmt.Errorf("nnue: reading output bias for bucket %d: %w", b, err)
		}
		n.OutputBiases[b] = v
	}

	return n, nil
}

// DefaultNetwork is the engine's embedded fallback network, used when an
// EvalFile fails validation (spec §7). The real production network is an
// incbin-style embedded binary blob (spec §1 Non-goals: "incbin-style
// binary embedding" is out of scope for this core); here it is a
// deterministically-seeded placeholder so a worker always has *a* network
// to evaluate with rather than nothing. Built once at package init and
// never mutated afterward.
var DefaultNetwork = buildDefaultNetwork()

func buildDefaultNetwork() *Network {
	var n = &Network{}
	var rnd = rand.New(rand.NewSource(2018091164))
	for i := range n.FeatureWeights {
		n.FeatureWeights[i] = int16(rnd.Intn(201) - 100)
	}
	for i := range n.FeatureBiases {
		n.FeatureBiases[i] = int16(rnd.Intn(41) - 20)
	}
	for b := 0; b < OutputBuckets; b++ {
		for i := range n.OutputWeights[b] {
			n.OutputWeights[b][i] = int16(rnd.Intn(9) - 4)
		}
		n.OutputBiases[b] = 0
	}
	return n
}
