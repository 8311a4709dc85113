package uf

import "testing"

func TestNew(t *testing.T) {
	f := New(3)

	if f.Len() != 3 {
		t.Errorf("expected 3 elements, got %d", f.Len())
	}
	if f.Sets() != 3 {
		t.Errorf("expected 3 sets, got %d", f.Sets())
	}

	// Initially, each element should be its own root
	for i := 0; i < 3; i++ {
		if f.Find(i) != i {
			t.Errorf("element %d should be its own root initially", i)
		}
	}
}

func TestUnion(t *testing.T) {
	f := New(3)

	if !f.Union(0, 1) {
		t.Errorf("first union of 0 and 1 should merge")
	}
	if !f.Same(0, 1) {
		t.Errorf("0 and 1 should share a root after Union")
	}
	if f.Same(0, 2) {
		t.Errorf("2 should still be separate from 0/1")
	}

	// Transitive: 0-1-2
	f.Union(1, 2)
	if !f.Same(0, 2) {
		t.Errorf("all elements should share a root after transitive union")
	}
	if f.Sets() != 1 {
		t.Errorf("expected 1 set, got %d", f.Sets())
	}
}

func TestUnionIdempotent(t *testing.T) {
	f := New(4)
	f.Union(0, 1)
	before := f.Groups()

	if f.Union(0, 1) {
		t.Errorf("second union of the same pair should be a no-op")
	}
	if f.Union(1, 0) {
		t.Errorf("reversed union of the same pair should be a no-op")
	}
	if f.Union(2, 2) {
		t.Errorf("union with self should be a no-op")
	}

	after := f.Groups()
	if len(before) != len(after) {
		t.Fatalf("partition changed: %v -> %v", before, after)
	}
	for root, members := range before {
		got := after[root]
		if len(got) != len(members) {
			t.Errorf("group %d changed: %v -> %v", root, members, got)
		}
	}
}

func TestGroups(t *testing.T) {
	f := New(5)
	f.Union(0, 3)
	f.Union(4, 3)

	groups := f.Groups()
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}

	members := groups[f.Find(0)]
	want := []int{0, 3, 4}
	if len(members) != len(want) {
		t.Fatalf("expected members %v, got %v", want, members)
	}
	for i := range want {
		if members[i] != want[i] {
			t.Errorf("expected members %v, got %v", want, members)
		}
	}
}

func TestGrow(t *testing.T) {
	f := New(2)
	f.Union(0, 1)

	first := f.Grow(2)
	if first != 2 {
		t.Errorf("expected first new index 2, got %d", first)
	}
	if f.Sets() != 3 {
		t.Errorf("expected 3 sets, got %d", f.Sets())
	}
	if f.Same(1, 2) {
		t.Errorf("grown element should start as a singleton")
	}
}

func TestClone(t *testing.T) {
	f := New(3)
	f.Union(0, 1)

	clone := f.Clone()
	clone.Union(1, 2)

	if f.Same(0, 2) {
		t.Errorf("modifying clone should not affect original")
	}
	if !clone.Same(0, 2) {
		t.Errorf("clone should see its own union")
	}
}

func TestLargeChain(t *testing.T) {
	const n = 1000
	f := New(n)
	for i := 1; i < n; i++ {
		f.Union(i-1, i)
	}
	root := f.Find(0)
	for i := 0; i < n; i++ {
		if f.Find(i) != root {
			t.Fatalf("element %d not in the chain set", i)
		}
	}
}
