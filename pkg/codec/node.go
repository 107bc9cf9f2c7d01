package codec

// NodeKind identifies the operation a processing node performs.
type NodeKind string

const (
	KindGroup          NodeKind = "group"
	KindTemporalPool   NodeKind = "temporal-pool"
	KindSpatialPool    NodeKind = "spatial-pool"
	KindAffine         NodeKind = "affine"
	KindTemporalExpand NodeKind = "temporal-expand"
	KindSpatialExpand  NodeKind = "spatial-expand"
)

// Capability describes how a node executes its operation.
type Capability string

const (
	// CapabilityStandard processes whole frames at once.
	CapabilityStandard Capability = "standard"

	// CapabilitySpatialWindowed processes frames tile by tile to bound
	// peak memory. Results are identical to standard execution.
	CapabilitySpatialWindowed Capability = "spatial-windowed"
)

// DefaultTileSize is the tile edge used by spatially windowed nodes.
const DefaultTileSize = 64

// Node is one element of a codec processing graph. Nodes are treated as
// immutable once built; transformations return new trees.
type Node struct {
	Name       string
	Kind       NodeKind
	Capability Capability
	TileSize   int
	Children   []*Node
}

// DefaultGraph builds the processing graph of the reference codec.
func DefaultGraph() *Node {
	return &Node{
		Name: "codec",
		Kind: KindGroup,
		Children: []*Node{
			{
				Name: "encoder",
				Kind: KindGroup,
				Children: []*Node{
					{Name: "encoder.temporal_pool", Kind: KindTemporalPool, Capability: CapabilityStandard},
					{Name: "encoder.spatial_pool", Kind: KindSpatialPool, Capability: CapabilityStandard},
					{Name: "encoder.affine", Kind: KindAffine, Capability: CapabilityStandard},
				},
			},
			{
				Name: "decoder",
				Kind: KindGroup,
				Children: []*Node{
					{Name: "decoder.affine", Kind: KindAffine, Capability: CapabilityStandard},
					{Name: "decoder.spatial_expand", Kind: KindSpatialExpand, Capability: CapabilityStandard},
					{Name: "decoder.temporal_expand", Kind: KindTemporalExpand, Capability: CapabilityStandard},
				},
			},
		},
	}
}

// Find returns the first node with the given name, or nil.
func (n *Node) Find(name string) *Node {
	if n == nil {
		return nil
	}
	if n.Name == name {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Clone returns a deep copy of the tree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	copied := &Node{
		Name:       n.Name,
		Kind:       n.Kind,
		Capability: n.Capability,
		TileSize:   n.TileSize,
	}
	if len(n.Children) > 0 {
		copied.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			copied.Children[i] = child.Clone()
		}
	}
	return copied
}

func (n *Node) isSpatial() bool {
	return n.Kind == KindSpatialPool || n.Kind == KindSpatialExpand
}

// Rewrite returns a new tree in which every standard spatial node is replaced
// by a spatially windowed variant with the given tile size. The input tree is
// not modified. A tileSize of 0 selects DefaultTileSize.
func Rewrite(root *Node, tileSize int) *Node {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	rewritten := root.Clone()
	rewritten.walk(func(n *Node) {
		if n.isSpatial() && n.Capability == CapabilityStandard {
			n.Capability = CapabilitySpatialWindowed
			n.TileSize = tileSize
		}
	})
	return rewritten
}

func (n *Node) walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, child := range n.Children {
		child.walk(fn)
	}
}
