package state

import (
	"testing"
)

func paths(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func equalPaths(t *testing.T, got []FileEntry, want ...string) {
	t.Helper()
	gp := paths(got)
	if len(gp) != len(want) {
		t.Fatalf("paths = %v, want %v", gp, want)
	}
	for i := range want {
		if gp[i] != want[i] {
			t.Fatalf("paths = %v, want %v", gp, want)
		}
	}
}

func TestCleanPath(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"gcodes":           "gcodes",
		"/gcodes/":         "gcodes",
		"gcodes//a/../b.g": "gcodes/b.g",
	}
	for in, want := range tests {
		if got := CleanPath(in); got != want {
			t.Errorf("CleanPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileTreeSetDirectory(t *testing.T) {
	tree := NewFileTree()
	tree.SetDirectory("gcodes", DirectoryListing{
		Dirs:  []ListingEntry{{Dirname: "parts"}},
		Files: []ListingEntry{{Filename: "b.gcode", Size: 10}, {Filename: "a.gcode", Size: 20}},
	})
	tree.AddFile(FileEntry{Path: "gcodes/parts/bracket.gcode"})

	equalPaths(t, tree.List("gcodes"), "gcodes/parts", "gcodes/a.gcode", "gcodes/b.gcode")

	// A second listing drops vanished children and their subtrees.
	tree.SetDirectory("gcodes", DirectoryListing{
		Files: []ListingEntry{{Filename: "a.gcode", Size: 25}},
	})

	equalPaths(t, tree.List("gcodes"), "gcodes/a.gcode")
	if _, ok := tree.Get("gcodes/parts/bracket.gcode"); ok {
		t.Error("subtree of removed directory still present")
	}
	if e, _ := tree.Get("gcodes/a.gcode"); e.Size != 25 {
		t.Errorf("Size = %d, want 25", e.Size)
	}
}

func TestFileTreeMutations(t *testing.T) {
	t.Run("AddFileCreatesParents", func(t *testing.T) {
		tree := NewFileTree()
		tree.AddFile(FileEntry{Path: "gcodes/x/y/z.gcode", Size: 1})

		for _, dir := range []string{"gcodes", "gcodes/x", "gcodes/x/y"} {
			e, ok := tree.Get(dir)
			if !ok || !e.Dir {
				t.Errorf("directory %q missing", dir)
			}
		}
	})

	t.Run("RemoveFile", func(t *testing.T) {
		tree := NewFileTree()
		tree.AddFile(FileEntry{Path: "gcodes/a.gcode"})

		if !tree.RemoveFile("gcodes/a.gcode") {
			t.Fatal("RemoveFile returned false")
		}
		if tree.RemoveFile("gcodes/a.gcode") {
			t.Error("second RemoveFile returned true")
		}
		if tree.RemoveFile("gcodes") {
			t.Error("RemoveFile removed a directory")
		}
	})

	t.Run("MoveDirectoryCarriesSubtree", func(t *testing.T) {
		tree := NewFileTree()
		tree.AddFile(FileEntry{Path: "gcodes/old/a.gcode"})
		tree.AddFile(FileEntry{Path: "gcodes/old/sub/b.gcode"})

		if !tree.Move("gcodes/old", "gcodes/new") {
			t.Fatal("Move returned false")
		}
		for _, p := range []string{"gcodes/new", "gcodes/new/a.gcode", "gcodes/new/sub/b.gcode"} {
			if _, ok := tree.Get(p); !ok {
				t.Errorf("%q missing after move", p)
			}
		}
		if _, ok := tree.Get("gcodes/old/a.gcode"); ok {
			t.Error("source still present after move")
		}
	})

	t.Run("MoveFile", func(t *testing.T) {
		tree := NewFileTree()
		tree.AddFile(FileEntry{Path: "gcodes/a.gcode", Size: 7})

		tree.Move("gcodes/a.gcode", "gcodes/done/a.gcode")
		e, ok := tree.Get("gcodes/done/a.gcode")
		if !ok || e.Size != 7 {
			t.Errorf("moved entry = %+v, %v", e, ok)
		}
	})

	t.Run("DeleteDirectoryRecursive", func(t *testing.T) {
		tree := NewFileTree()
		tree.AddDirectory("gcodes/tmp")
		tree.AddFile(FileEntry{Path: "gcodes/tmp/a.gcode"})
		tree.AddFile(FileEntry{Path: "gcodes/keep.gcode"})

		if !tree.DeleteDirectory("gcodes/tmp") {
			t.Fatal("DeleteDirectory returned false")
		}
		equalPaths(t, tree.List("gcodes"), "gcodes/keep.gcode")
		if tree.Len() != 2 {
			t.Errorf("Len() = %d, want 2", tree.Len())
		}
	})
}

func TestStoreFileChanges(t *testing.T) {
	s := NewStore()
	var n int
	s.OnChange(func(c Change) {
		if c.Kind == ChangeFiles {
			n++
		}
	})

	s.AddFile(FileEntry{Path: "gcodes/a.gcode"})
	s.MoveFile("gcodes/a.gcode", "gcodes/b.gcode")
	s.RemoveFile("gcodes/missing.gcode")
	s.RemoveFile("gcodes/b.gcode")

	if n != 3 {
		t.Errorf("file changes = %d, want 3", n)
	}
	if _, ok := s.File("gcodes/b.gcode"); ok {
		t.Error("removed file still present")
	}
}
