package domain

import "encoding/json"

// Extra holds the members of a stored object that its Go type does not
// declare. Editors may store such members on discographies; rewriting an
// aggregate must keep them.
type Extra map[string]json.RawMessage

var (
	discographyFields   = []string{"id", "artistId", "sections"}
	sectionFields       = []string{"type", "label", "albums"}
	albumMetadataFields = []string{"id", "title", "releaseDate", "disabled"}
)

// extraMembers returns the members of the JSON object data not named in
// known.
func extraMembers(data []byte, known []string) (Extra, error) {
	var all Extra
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// marshalWithExtra encodes v and adds every extra member it does not
// already carry.
func marshalWithExtra(v any, extra Extra) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := members[k]; !ok {
			members[k] = raw
		}
	}
	return json.Marshal(members)
}

func (d *Discography) UnmarshalJSON(data []byte) error {
	type plain Discography
	if err := json.Unmarshal(data, (*plain)(d)); err != nil {
		return err
	}
	extra, err := extraMembers(data, discographyFields)
	d.Extra = extra
	return err
}

func (d Discography) MarshalJSON() ([]byte, error) {
	type plain Discography
	return marshalWithExtra(plain(d), d.Extra)
}

func (s *Section) UnmarshalJSON(data []byte) error {
	type plain Section
	if err := json.Unmarshal(data, (*plain)(s)); err != nil {
		return err
	}
	extra, err := extraMembers(data, sectionFields)
	s.Extra = extra
	return err
}

func (s Section) MarshalJSON() ([]byte, error) {
	type plain Section
	return marshalWithExtra(plain(s), s.Extra)
}

func (m *AlbumMetadata) UnmarshalJSON(data []byte) error {
	type plain AlbumMetadata
	if err := json.Unmarshal(data, (*plain)(m)); err != nil {
		return err
	}
	extra, err := extraMembers(data, albumMetadataFields)
	m.Extra = extra
	return err
}

func (m AlbumMetadata) MarshalJSON() ([]byte, error) {
	type plain AlbumMetadata
	return marshalWithExtra(plain(m), m.Extra)
}
