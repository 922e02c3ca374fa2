package domain

import (
	"fmt"
	"strings"
)

const RootFolderID = "root"

type FolderNode struct {
	ID   string
	Name string
}

func RootFolder() FolderNode {
	return FolderNode{ID: RootFolderID, Name: RootFolderID}
}

// PathStack is the root-first position in the remote folder tree. It is never
// empty.
type PathStack struct {
	entries []FolderNode
}

func NewPathStack() PathStack {
	return PathStack{entries: []FolderNode{RootFolder()}}
}

func (s *PathStack) Push(node FolderNode) {
	s.ensureRoot()
	s.entries = append(s.entries, node)
}

// TruncateTo keeps entries [0, index].
func (s *PathStack) TruncateTo(index int) error {
	s.ensureRoot()
	if index < 0 || index >= len(s.entries) {
		return fmt.Errorf("truncate to %d of %d: %w", index, len(s.entries), ErrInvalidPathIndex)
	}
	s.entries = s.entries[:index+1]
	return nil
}

func (s PathStack) Top() FolderNode {
	if len(s.entries) == 0 {
		return RootFolder()
	}
	return s.entries[len(s.entries)-1]
}

func (s PathStack) Len() int {
	if len(s.entries) == 0 {
		return 1
	}
	return len(s.entries)
}

func (s PathStack) Entries() []FolderNode {
	if len(s.entries) == 0 {
		return []FolderNode{RootFolder()}
	}
	return append([]FolderNode(nil), s.entries...)
}

func (s PathStack) Breadcrumb() string {
	names := make([]string, 0, s.Len())
	for _, entry := range s.Entries() {
		names = append(names, entry.Name)
	}
	return strings.Join(names, " > ")
}

func (s *PathStack) ensureRoot() {
	if len(s.entries) == 0 {
		s.entries = []FolderNode{RootFolder()}
	}
}
