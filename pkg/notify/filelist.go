package notify

import (
	"github.com/Steam-Park/mainsail/pkg/state"
)

// File actions of notify_filelist_changed.
const (
	ActionAdded           = "added"
	ActionRemoved         = "removed"
	ActionFileMove        = "file_move"
	ActionAddDirectory    = "add_directory"
	ActionDeleteDirectory = "delete_directory"
)

// FileItem locates a file in the newer item/source_item payload form.
type FileItem struct {
	Path     string  `json:"path"`
	Root     string  `json:"root"`
	Size     int64   `json:"size,omitempty"`
	Modified float64 `json:"modified,omitempty"`
}

// FileChange is the payload of notify_filelist_changed. Both the flat
// (filename/prev_file) and the item/source_item forms are accepted.
type FileChange struct {
	Action   string  `json:"action"`
	Filename string  `json:"filename,omitempty"`
	Root     string  `json:"root,omitempty"`
	Size     int64   `json:"size,omitempty"`
	Modified float64 `json:"modified,omitempty"`
	PrevFile string  `json:"prev_file,omitempty"`
	PrevRoot string  `json:"prev_root,omitempty"`

	Item       *FileItem `json:"item,omitempty"`
	SourceItem *FileItem `json:"source_item,omitempty"`
}

// Path returns the affected path, prefixed with its root.
func (c FileChange) Path() string {
	if c.Item != nil {
		return c.Item.rootedPath()
	}
	return rooted(c.Root, c.Filename)
}

// SourcePath returns the previous path of a move.
func (c FileChange) SourcePath() string {
	if c.SourceItem != nil {
		return c.SourceItem.rootedPath()
	}
	root := c.PrevRoot
	if root == "" {
		root = c.Root
	}
	return rooted(root, c.PrevFile)
}

// Entry returns the file tree entry described by the change.
func (c FileChange) Entry() state.FileEntry {
	e := state.FileEntry{Path: c.Path(), Size: c.Size, Modified: c.Modified}
	if c.Item != nil {
		e.Size = c.Item.Size
		e.Modified = c.Item.Modified
	}
	return e
}

// rootedPath joins the item's root and path. Item paths are always
// relative to their root, even when they begin with a directory named
// like it.
func (i *FileItem) rootedPath() string {
	p := state.CleanPath(i.Path)
	if p == "" {
		return ""
	}
	return rootName(i.Root) + "/" + p
}

func rootName(root string) string {
	if root == "" {
		return "gcodes"
	}
	return state.CleanPath(root)
}

// rooted prefixes a flat filename with its root. Older hosts sometimes
// send the filename already rooted.
func rooted(root, p string) string {
	p = state.CleanPath(p)
	if p == "" {
		return ""
	}
	root = rootName(root)
	if p == root || len(p) > len(root) && p[:len(root)+1] == root+"/" {
		return p
	}
	return root + "/" + p
}

// FileHandler applies one file action.
type FileHandler func(change FileChange) error

func (r *Router) defaultFileActions() map[string]FileHandler {
	return map[string]FileHandler{
		ActionAdded: func(c FileChange) error {
			if c.Path() == "" {
				return errMissingPath
			}
			r.store.AddFile(c.Entry())
			return nil
		},
		ActionRemoved: func(c FileChange) error {
			if c.Path() == "" {
				return errMissingPath
			}
			r.store.RemoveFile(c.Path())
			return nil
		},
		ActionFileMove: func(c FileChange) error {
			if c.Path() == "" || c.SourcePath() == "" {
				return errMissingPath
			}
			r.store.MoveFile(c.SourcePath(), c.Path())
			return nil
		},
		ActionAddDirectory: func(c FileChange) error {
			if c.Path() == "" {
				return errMissingPath
			}
			r.store.AddDirectory(c.Path())
			return nil
		},
		ActionDeleteDirectory: func(c FileChange) error {
			if c.Path() == "" {
				return errMissingPath
			}
			r.store.DeleteDirectory(c.Path())
			return nil
		},
	}
}
