package state

import (
	"path"
	"sort"
	"strings"
)

// FileEntry is one node of the mirrored file tree.
type FileEntry struct {
	Path     string
	Dir      bool
	Size     int64
	Modified float64
}

// Name returns the last path element.
func (e FileEntry) Name() string {
	return path.Base(e.Path)
}

// ListingEntry is one item of a directory listing response.
type ListingEntry struct {
	Dirname  string  `json:"dirname,omitempty"`
	Filename string  `json:"filename,omitempty"`
	Size     int64   `json:"size,omitempty"`
	Modified float64 `json:"modified,omitempty"`
}

// DirectoryListing is the result of a directory listing request.
type DirectoryListing struct {
	Dirs  []ListingEntry `json:"dirs"`
	Files []ListingEntry `json:"files"`
}

// HasFile reports whether the listing contains a file with the given name.
func (l DirectoryListing) HasFile(name string) bool {
	for _, f := range l.Files {
		if f.Filename == name {
			return true
		}
	}
	return false
}

// FileTree mirrors the host's file roots keyed by slash-separated path
// (for example "gcodes/parts/bracket.gcode"). It is not safe for concurrent
// use; the Store serializes access.
type FileTree struct {
	entries map[string]FileEntry
}

// NewFileTree creates an empty tree.
func NewFileTree() *FileTree {
	return &FileTree{entries: make(map[string]FileEntry)}
}

// CleanPath normalizes a host path: no leading or trailing slash, no dot segments.
func CleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// Get returns the entry at p.
func (t *FileTree) Get(p string) (FileEntry, bool) {
	e, ok := t.entries[CleanPath(p)]
	return e, ok
}

// Len returns the number of entries.
func (t *FileTree) Len() int {
	return len(t.entries)
}

// SetDirectory replaces the direct children of dir with listing.
// Child directories that disappeared are removed with their subtrees.
func (t *FileTree) SetDirectory(dir string, listing DirectoryListing) {
	dir = CleanPath(dir)
	t.ensureDir(dir)

	keep := make(map[string]bool, len(listing.Dirs)+len(listing.Files))
	for _, d := range listing.Dirs {
		if d.Dirname == "" {
			continue
		}
		p := join(dir, d.Dirname)
		keep[p] = true
		existing, ok := t.entries[p]
		if !ok || !existing.Dir {
			t.removeTree(p)
		}
		t.entries[p] = FileEntry{Path: p, Dir: true, Size: d.Size, Modified: d.Modified}
	}
	for _, f := range listing.Files {
		if f.Filename == "" {
			continue
		}
		p := join(dir, f.Filename)
		keep[p] = true
		if existing, ok := t.entries[p]; ok && existing.Dir {
			t.removeTree(p)
		}
		t.entries[p] = FileEntry{Path: p, Size: f.Size, Modified: f.Modified}
	}

	for _, child := range t.children(dir) {
		if !keep[child.Path] {
			t.removeTree(child.Path)
		}
	}
}

// AddFile inserts or updates a file, creating missing parent directories.
func (t *FileTree) AddFile(entry FileEntry) {
	p := CleanPath(entry.Path)
	if p == "" {
		return
	}
	t.ensureDir(path.Dir(p))
	entry.Path = p
	entry.Dir = false
	t.entries[p] = entry
}

// RemoveFile deletes a single file entry.
func (t *FileTree) RemoveFile(p string) bool {
	p = CleanPath(p)
	e, ok := t.entries[p]
	if !ok || e.Dir {
		return false
	}
	delete(t.entries, p)
	return true
}

// AddDirectory creates a directory and any missing parents.
func (t *FileTree) AddDirectory(p string) {
	t.ensureDir(CleanPath(p))
}

// DeleteDirectory removes a directory and everything below it.
func (t *FileTree) DeleteDirectory(p string) bool {
	p = CleanPath(p)
	e, ok := t.entries[p]
	if !ok || !e.Dir {
		return false
	}
	t.removeTree(p)
	return true
}

// Move renames a file or directory. Directory moves carry the subtree.
func (t *FileTree) Move(src, dst string) bool {
	src, dst = CleanPath(src), CleanPath(dst)
	e, ok := t.entries[src]
	if !ok || dst == "" || src == dst {
		return false
	}
	t.ensureDir(path.Dir(dst))

	if !e.Dir {
		delete(t.entries, src)
		e.Path = dst
		t.entries[dst] = e
		return true
	}

	moved := make(map[string]FileEntry)
	prefix := src + "/"
	for p, entry := range t.entries {
		if p == src || strings.HasPrefix(p, prefix) {
			delete(t.entries, p)
			entry.Path = dst + strings.TrimPrefix(p, src)
			moved[entry.Path] = entry
		}
	}
	for p, entry := range moved {
		t.entries[p] = entry
	}
	return true
}

// List returns the direct children of dir, directories first, then by name.
func (t *FileTree) List(dir string) []FileEntry {
	children := t.children(CleanPath(dir))
	sort.Slice(children, func(i, j int) bool {
		if children[i].Dir != children[j].Dir {
			return children[i].Dir
		}
		return children[i].Path < children[j].Path
	})
	return children
}

func (t *FileTree) children(dir string) []FileEntry {
	var out []FileEntry
	for p, e := range t.entries {
		if p != dir && parentOf(p) == dir {
			out = append(out, e)
		}
	}
	return out
}

func (t *FileTree) ensureDir(dir string) {
	for dir != "" && dir != "." {
		if e, ok := t.entries[dir]; ok && e.Dir {
			return
		}
		t.entries[dir] = FileEntry{Path: dir, Dir: true}
		dir = parentOf(dir)
	}
}

func (t *FileTree) removeTree(p string) {
	prefix := p + "/"
	for key := range t.entries {
		if key == p || strings.HasPrefix(key, prefix) {
			delete(t.entries, key)
		}
	}
}

func parentOf(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i]
	}
	return ""
}

func join(dir, name string) string {
	if dir == "" {
		return CleanPath(name)
	}
	return CleanPath(dir + "/" + name)
}
