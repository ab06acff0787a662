package tree

import "testing"

func TestComputeStats(t *testing.T) {
	s := ComputeStats(sampleTree())

	if s.TotalNodes != 10 || s.MaxDepth != 3 {
		t.Fatalf("total=%d depth=%d", s.TotalNodes, s.MaxDepth)
	}

	want := []LevelStats{
		{Depth: 0, Nodes: 1, Categories: 1, AvgLabelLength: 4, MaxLabelLength: 4},
		{Depth: 1, Nodes: 3, Categories: 3, Parents: 1, MaxSiblings: 3, AvgLabelLength: 1, MaxLabelLength: 1},
		{Depth: 2, Nodes: 5, Fields: 4, Categories: 1, Parents: 3, MaxSiblings: 2, AvgLabelLength: 1.8, MaxLabelLength: 2},
		{Depth: 3, Nodes: 1, Fields: 1, Parents: 1, MaxSiblings: 1, AvgLabelLength: 2, MaxLabelLength: 2},
	}
	for i, w := range want {
		if s.Levels[i] != w {
			t.Errorf("level %d = %+v, want %+v", i, s.Levels[i], w)
		}
	}
}

func TestComputeStatsNil(t *testing.T) {
	if s := ComputeStats(nil); s.TotalNodes != 0 || s.Levels != nil {
		t.Errorf("stats = %+v", s)
	}
}
