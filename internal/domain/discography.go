package domain

// SectionIndex returns the index of the section holding albums of type t,
// or -1 when there is none.
func (d *Discography) SectionIndex(t AlbumType) int {
	for i := range d.Sections {
		if d.Sections[i].Type == t {
			return i
		}
	}
	return -1
}

// EnsureSection returns the section for type t, appending an empty one when
// it does not exist yet.
func (d *Discography) EnsureSection(t AlbumType) *Section {
	if i := d.SectionIndex(t); i >= 0 {
		return &d.Sections[i]
	}
	d.Sections = append(d.Sections, Section{Type: t, Albums: []AlbumMetadata{}})
	return &d.Sections[len(d.Sections)-1]
}

// AlbumIndex returns the position of the album summary with the given id,
// or -1.
func (s *Section) AlbumIndex(id string) int {
	for i := range s.Albums {
		if s.Albums[i].ID == id {
			return i
		}
	}
	return -1
}

// RemoveAlbum drops the summary with the given id and reports whether one
// was found.
func (s *Section) RemoveAlbum(id string) bool {
	_, ok := s.TakeAlbum(id)
	return ok
}

// TakeAlbum removes the summary with the given id and returns it.
func (s *Section) TakeAlbum(id string) (AlbumMetadata, bool) {
	i := s.AlbumIndex(id)
	if i < 0 {
		return AlbumMetadata{}, false
	}
	taken := s.Albums[i]
	s.Albums = append(s.Albums[:i], s.Albums[i+1:]...)
	return taken, true
}
