package codec

import "testing"

func TestRewrite_SwapsSpatialNodes(t *testing.T) {
	original := DefaultGraph()
	rewritten := Rewrite(original, 64)

	for _, name := range []string{"encoder.spatial_pool", "decoder.spatial_expand"} {
		node := rewritten.Find(name)
		if node == nil {
			t.Fatalf("node %s missing after rewrite", name)
		}
		if node.Capability != CapabilitySpatialWindowed {
			t.Errorf("%s: expected spatial-windowed, got %s", name, node.Capability)
		}
		if node.TileSize != 64 {
			t.Errorf("%s: expected tile size 64, got %d", name, node.TileSize)
		}
	}

	for _, name := range []string{"encoder.temporal_pool", "encoder.affine", "decoder.temporal_expand"} {
		node := rewritten.Find(name)
		if node == nil {
			t.Fatalf("node %s missing after rewrite", name)
		}
		if node.Capability != CapabilityStandard {
			t.Errorf("%s: expected standard, got %s", name, node.Capability)
		}
	}
}

func TestRewrite_DoesNotTouchInput(t *testing.T) {
	original := DefaultGraph()
	_ = Rewrite(original, 64)

	original.walk(func(n *Node) {
		if n.Capability == CapabilitySpatialWindowed {
			t.Errorf("node %s was modified in place", n.Name)
		}
		if n.TileSize != 0 {
			t.Errorf("node %s gained tile size %d", n.Name, n.TileSize)
		}
	})
}

func TestRewrite_DefaultTileSize(t *testing.T) {
	rewritten := Rewrite(DefaultGraph(), 0)
	node := rewritten.Find("encoder.spatial_pool")
	if node.TileSize != DefaultTileSize {
		t.Errorf("expected default tile size %d, got %d", DefaultTileSize, node.TileSize)
	}
}

func TestFind(t *testing.T) {
	graph := DefaultGraph()
	if graph.Find("decoder.affine") == nil {
		t.Error("expected to find decoder.affine")
	}
	if graph.Find("no-such-node") != nil {
		t.Error("expected nil for unknown name")
	}
}
