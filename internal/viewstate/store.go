package viewstate

import "github.com/korjavin/tgclasses/internal/schema"

// Store holds the client's single in-memory snapshot of the class
// collection. Its contents are always a verbatim copy of the last
// successful list response; it is replaced wholesale on each refresh and
// never patched item by item, so a concurrent render can never observe a
// partial update. Renderers read it, only RefreshList writes it.
type Store struct {
	classes []schema.Class
}

func NewStore() *Store {
	return &Store{}
}

// Replace swaps in a fresh snapshot.
func (s *Store) Replace(classes []schema.Class) {
	s.classes = classes
}

// Classes returns the current snapshot in server order.
func (s *Store) Classes() []schema.Class {
	return s.classes
}

// Find looks up a class in the snapshot by id. The edit affordance uses
// this instead of a network fetch: the form is pre-filled from what the
// viewer is already looking at.
func (s *Store) Find(id int64) (*schema.Class, bool) {
	for i := range s.classes {
		if s.classes[i].ID == id {
			return &s.classes[i], true
		}
	}
	return nil, false
}
