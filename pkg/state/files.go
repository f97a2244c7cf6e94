package state

// SetDirectory applies a directory listing to the mirrored file tree.
func (s *Store) SetDirectory(dir string, listing DirectoryListing) {
	s.mu.Lock()
	s.files.SetDirectory(dir, listing)
	s.mu.Unlock()
	s.emit(Change{Kind: ChangeFiles, Object: CleanPath(dir)})
}

// AddFile records an added or modified file.
func (s *Store) AddFile(entry FileEntry) {
	s.mu.Lock()
	s.files.AddFile(entry)
	s.mu.Unlock()
	s.emit(Change{Kind: ChangeFiles, Object: CleanPath(entry.Path)})
}

// RemoveFile drops a file from the tree.
func (s *Store) RemoveFile(p string) {
	s.mu.Lock()
	removed := s.files.RemoveFile(p)
	s.mu.Unlock()
	if removed {
		s.emit(Change{Kind: ChangeFiles, Object: CleanPath(p)})
	}
}

// MoveFile renames a file or directory.
func (s *Store) MoveFile(src, dst string) {
	s.mu.Lock()
	moved := s.files.Move(src, dst)
	s.mu.Unlock()
	if moved {
		s.emit(Change{Kind: ChangeFiles, Object: CleanPath(dst)})
	}
}

// AddDirectory records a created directory.
func (s *Store) AddDirectory(p string) {
	s.mu.Lock()
	s.files.AddDirectory(p)
	s.mu.Unlock()
	s.emit(Change{Kind: ChangeFiles, Object: CleanPath(p)})
}

// DeleteDirectory drops a directory and its contents.
func (s *Store) DeleteDirectory(p string) {
	s.mu.Lock()
	deleted := s.files.DeleteDirectory(p)
	s.mu.Unlock()
	if deleted {
		s.emit(Change{Kind: ChangeFiles, Object: CleanPath(p)})
	}
}

// File returns one entry of the mirrored file tree.
func (s *Store) File(p string) (FileEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files.Get(p)
}

// ListFiles returns the direct children of dir.
func (s *Store) ListFiles(dir string) []FileEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files.List(dir)
}
