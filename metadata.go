package potree

// Metadata is the metadata.json document describing a Potree v2 point
// cloud. Field tags match the producer's camelCase JSON, mirroring the Rust
// original's #[serde(rename_all = "camelCase")].
type Metadata struct {
	Version     string             `json:"version"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Points      uint64             `json:"points"`
	Projection  string             `json:"projection"`
	Hierarchy   HierarchyMetadata  `json:"hierarchy"`
	Offset      [3]float64         `json:"offset"`
	Scale       [3]float64         `json:"scale"`
	Spacing     float64            `json:"spacing"`
	BoundingBox BoundingBox        `json:"boundingBox"`
	Encoding    string             `json:"encoding"`
	Attributes  []AttributeMetadata `json:"attributes"`
}

// HierarchyMetadata describes the chunked hierarchy binary.
type HierarchyMetadata struct {
	FirstChunkSize uint64 `json:"firstChunkSize"`
	StepSize       uint16 `json:"stepSize"`
	Depth          uint16 `json:"depth"`
}

// BoundingBox is the root node's world-space extent.
type BoundingBox struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// AttributeType is the closed set of per-point attribute element types.
type AttributeType string

const (
	AttributeTypeInt8      AttributeType = "int8"
	AttributeTypeInt16     AttributeType = "int16"
	AttributeTypeInt32     AttributeType = "int32"
	AttributeTypeInt64     AttributeType = "int64"
	AttributeTypeUInt8     AttributeType = "uint8"
	AttributeTypeUInt16    AttributeType = "uint16"
	AttributeTypeUInt32    AttributeType = "uint32"
	AttributeTypeUInt64    AttributeType = "uint64"
	AttributeTypeFloat     AttributeType = "float"
	AttributeTypeDouble    AttributeType = "double"
	AttributeTypeUndefined AttributeType = "undefined"
)

// AttributeMetadata describes one column of the per-point record layout.
// Min/Max are retained for document fidelity even though the decoder itself
// never branches on them.
type AttributeMetadata struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Size        uint16        `json:"size"`
	NumElements uint16        `json:"numElements"`
	ElementSize uint16        `json:"elementSize"`
	Type        AttributeType `json:"type"`
	Min         []float32     `json:"min"`
	Max         []float32     `json:"max"`
}

const encodingBrotli = "BROTLI"
