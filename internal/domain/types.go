package domain

// AlbumType classifies an album; it decides the discography section.
type AlbumType string

const (
	AlbumTypeStudio      AlbumType = "studio"
	AlbumTypeCompilation AlbumType = "compilation"
	AlbumTypeEP          AlbumType = "ep"
	AlbumTypeOther       AlbumType = "other"
)

// AlbumTypes lists the known album types in display order.
var AlbumTypes = []AlbumType{
	AlbumTypeStudio,
	AlbumTypeCompilation,
	AlbumTypeEP,
	AlbumTypeOther,
}

// Valid reports whether t is one of the known album types.
func (t AlbumType) Valid() bool {
	for _, known := range AlbumTypes {
		if t == known {
			return true
		}
	}
	return false
}
