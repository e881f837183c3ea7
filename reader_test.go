package potree

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"testing"
)

const testRecordSize = 22

func testRecord(nodeType, mask byte, numPoints uint32, byteOffset, byteSize uint64) []byte {
	buf := make([]byte, testRecordSize)
	buf[0] = nodeType
	buf[1] = mask
	binary.LittleEndian.PutUint32(buf[2:6], numPoints)
	binary.LittleEndian.PutUint64(buf[6:14], byteOffset)
	binary.LittleEndian.PutUint64(buf[14:22], byteSize)
	return buf
}

// fakeSource is a blob.BlobSource backed by an in-memory map from URL to
// file contents, so Reader tests don't need a real file:// or http:// round
// trip. GetRange slices the stored file; GetJSON unmarshals it whole.
type fakeSource struct {
	files map[string][]byte
}

func newFakeSource() *fakeSource {
	return &fakeSource{files: make(map[string][]byte)}
}

func (f *fakeSource) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	data, ok := f.files[url]
	if !ok {
		return nil, errors.New("fakeSource: no such file: " + url)
	}
	return data, nil
}

func (f *fakeSource) GetRange(ctx context.Context, url string, offset, length uint64, headers map[string]string) ([]byte, error) {
	data, ok := f.files[url]
	if !ok {
		return nil, errors.New("fakeSource: no such file: " + url)
	}
	end := offset + length
	if end > uint64(len(data)) {
		return nil, errors.New("fakeSource: range out of bounds")
	}
	return data[offset:end], nil
}

func (f *fakeSource) GetJSON(ctx context.Context, url string, headers map[string]string, v any) error {
	data, err := f.Get(ctx, url, headers)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func testMetadata() Metadata {
	return Metadata{
		Version:  "2.0",
		Name:     "test",
		Points:   3,
		Encoding: "BROTLI",
		Hierarchy: HierarchyMetadata{
			FirstChunkSize: testRecordSize,
			StepSize:       100,
			Depth:          1,
		},
		Scale:  [3]float64{0.001, 0.001, 0.001},
		Offset: [3]float64{0, 0, 0},
		BoundingBox: BoundingBox{
			Min: [3]float64{0, 0, 0},
			Max: [3]float64{8, 8, 8},
		},
		Spacing: 1,
		Attributes: []AttributeMetadata{
			{Name: "position", Size: 12},
			{Name: "rgb", Size: 6},
		},
	}
}

func newTestSource(t *testing.T, meta Metadata, rootChunk []byte) *fakeSource {
	t.Helper()
	src := newFakeSource()

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("marshal metadata: %v", err)
	}
	src.files["http://cloud/metadata.json"] = metaJSON
	src.files["http://cloud/hierarchy.bin"] = rootChunk
	return src
}

func TestOpenSeedsLeafRoot(t *testing.T) {
	meta := testMetadata()
	root := testRecord(0, 0, 3, 0, 500) // leaf, no children

	src := newTestSource(t, meta, root)
	r, err := Open(context.Background(), "http://cloud", src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	n := r.Octree().Get(RootID())
	if n.Name != "r" || n.NodeType != 0 || n.NumPoints != 3 || n.ByteSize != 500 {
		t.Fatalf("unexpected root after Open: %+v", n)
	}
	if n.BoundingBox.Max.X != 8 {
		t.Fatalf("root bounding box not seeded from metadata: %+v", n.BoundingBox)
	}
}

func TestOpenExpandsProxyChainOneLevel(t *testing.T) {
	meta := testMetadata()
	// root re-materializes into an inner node with one child, in the same
	// first chunk.
	root := append(
		testRecord(1, 0b00000001, 3, 10, 20),
		testRecord(0, 0, 3, 30, 40)...,
	)
	meta.Hierarchy.FirstChunkSize = uint64(len(root))

	src := newTestSource(t, meta, root)
	r, err := Open(context.Background(), "http://cloud", src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	n := r.Octree().Get(RootID())
	if n.NodeType != 1 {
		t.Fatalf("expected root to become inner after initial chunk load, got type %d", n.NodeType)
	}
	if n.Children[0] == nil {
		t.Fatal("expected root to have a child at octant 0")
	}
}

func TestLoadHierarchyNoOpOnNonProxy(t *testing.T) {
	meta := testMetadata()
	root := testRecord(0, 0, 3, 0, 500)

	src := newTestSource(t, meta, root)
	r, err := Open(context.Background(), "http://cloud", src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	before := *r.Octree().Get(RootID())
	if err := r.LoadHierarchy(context.Background(), RootID()); err != nil {
		t.Fatalf("LoadHierarchy: %v", err)
	}
	after := *r.Octree().Get(RootID())
	if before != after {
		t.Fatalf("LoadHierarchy mutated a non-proxy node: before=%+v after=%+v", before, after)
	}
}

func TestLoadHierarchyUnknownNodeIsError(t *testing.T) {
	meta := testMetadata()
	root := testRecord(0, 0, 3, 0, 500)

	src := newTestSource(t, meta, root)
	r, err := Open(context.Background(), "http://cloud", src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := r.LoadHierarchy(context.Background(), NodeId(99)); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
}

// TestLoadEntireHierarchyExpandsNestedProxy builds a tree where the root's
// only child is itself still a proxy, pointing at a second chunk appended
// after the first in hierarchy.bin. LoadEntireHierarchy must follow that
// proxy and expand it too.
func TestLoadEntireHierarchyExpandsNestedProxy(t *testing.T) {
	meta := testMetadata()

	firstChunk := append(
		testRecord(1, 0b00000001, 3, 10, 20), // root: inner, child at octant 0
		testRecord(2, 0, 0, uint64(2*testRecordSize), testRecordSize)..., // child is a proxy, chunk follows firstChunk
	)
	secondChunk := testRecord(0, 0, 7, 50, 60) // child re-materializes as a leaf

	meta.Hierarchy.FirstChunkSize = uint64(len(firstChunk))

	src := newFakeSource()
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("marshal metadata: %v", err)
	}
	src.files["http://cloud/metadata.json"] = metaJSON
	src.files["http://cloud/hierarchy.bin"] = append(firstChunk, secondChunk...)

	r, err := Open(context.Background(), "http://cloud", src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	child := r.Octree().Get(*r.Octree().Get(RootID()).Children[0])
	if child.NodeType != 2 {
		t.Fatalf("expected child to still be a proxy before LoadEntireHierarchy, got type %d", child.NodeType)
	}

	if err := r.LoadEntireHierarchy(context.Background()); err != nil {
		t.Fatalf("LoadEntireHierarchy: %v", err)
	}

	child = r.Octree().Get(*r.Octree().Get(RootID()).Children[0])
	if child.NodeType != 0 || child.NumPoints != 7 {
		t.Fatalf("expected child expanded into leaf with 7 points, got %+v", child)
	}
}

func TestLoadEntireHierarchyIsIdempotent(t *testing.T) {
	meta := testMetadata()
	firstChunk := append(
		testRecord(1, 0b00000001, 3, 10, 20),
		testRecord(2, 0, 0, uint64(2*testRecordSize), testRecordSize)...,
	)
	secondChunk := testRecord(0, 0, 7, 50, 60)
	meta.Hierarchy.FirstChunkSize = uint64(len(firstChunk))

	src := newFakeSource()
	metaJSON, _ := json.Marshal(meta)
	src.files["http://cloud/metadata.json"] = metaJSON
	src.files["http://cloud/hierarchy.bin"] = append(firstChunk, secondChunk...)

	r, err := Open(context.Background(), "http://cloud", src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := r.LoadEntireHierarchy(context.Background()); err != nil {
		t.Fatalf("first LoadEntireHierarchy: %v", err)
	}
	first := append([]Node(nil), *r.Octree().Get(RootID()))

	if err := r.LoadEntireHierarchy(context.Background()); err != nil {
		t.Fatalf("second LoadEntireHierarchy: %v", err)
	}
	second := *r.Octree().Get(RootID())

	if first[0] != second {
		t.Fatalf("second LoadEntireHierarchy changed the root: before=%+v after=%+v", first[0], second)
	}
	if r.Octree().Len() != 2 {
		t.Fatalf("expected arena to still have exactly 2 nodes after repeated expansion, got %d", r.Octree().Len())
	}
}

func TestLoadPointsUnknownNodeIsError(t *testing.T) {
	meta := testMetadata()
	root := testRecord(0, 0, 3, 0, 500)
	src := newTestSource(t, meta, root)

	r, err := Open(context.Background(), "http://cloud", src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := r.LoadPoints(context.Background(), NodeId(42)); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
}

// TestLoadPointsBadBrotliStreamIsDecompressError checks that a node whose
// octree.bin payload isn't a valid Brotli stream surfaces ErrDecompress
// specifically, not the generic ErrInvalidBinaryData — garbage bytes are
// enough to exercise this without a real encoder.
func TestLoadPointsBadBrotliStreamIsDecompressError(t *testing.T) {
	meta := testMetadata()
	root := testRecord(0, 0, 3, 0, 5)
	src := newTestSource(t, meta, root)
	src.files["http://cloud/octree.bin"] = []byte{0xff, 0xff, 0xff, 0xff, 0xff}

	r, err := Open(context.Background(), "http://cloud", src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	_, err = r.LoadPoints(context.Background(), RootID())
	if !errors.Is(err, ErrDecompress) {
		t.Fatalf("expected ErrDecompress, got %v", err)
	}
}

func TestLoadPointsUnsupportedEncodingIsError(t *testing.T) {
	meta := testMetadata()
	meta.Encoding = "LASZIP"
	root := testRecord(0, 0, 3, 0, 500)
	src := newTestSource(t, meta, root)

	r, err := Open(context.Background(), "http://cloud", src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	_, err = r.LoadPoints(context.Background(), RootID())
	var unimpl *EncodingUnimplementedError
	if !errors.As(err, &unimpl) {
		t.Fatalf("expected *EncodingUnimplementedError, got %v", err)
	}
	if unimpl.Encoding != "LASZIP" {
		t.Fatalf("Encoding = %q, want %q", unimpl.Encoding, "LASZIP")
	}
}
