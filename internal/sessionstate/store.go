package sessionstate

// Store is the file-backed domain.GroupStateStore and
// domain.SigningStateStore: one directory tree per group, rooted at root,
// named per spec.md §4.2 (group-state/<group_id>/...).
type Store struct {
	root string
}

// New returns a Store rooted at root (typically "<registry-dir>/group-state").
func New(root string) *Store {
	return &Store{root: root}
}
