package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ToMap(errs []ValidationError) map[string]string {
	result := make(map[string]string)
	for _, e := range errs {
		result[e.Field] = e.Message
	}
	return result
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

var releaseDateRegex = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2})?)?$`)

func validateReleaseDate(field, releaseDate string) []ValidationError {
	var errs []ValidationError
	if releaseDate != "" && !releaseDateRegex.MatchString(releaseDate) {
		errs = append(errs, ValidationError{Field: field, Message: "invalid date format (expected: YYYY or YYYY-MM or YYYY-MM-DD)"})
	}
	return errs
}

func validateAlbumType(field string, t AlbumType, required bool) []ValidationError {
	var errs []ValidationError
	switch {
	case t == "" && required:
		errs = append(errs, ValidationError{Field: field, Message: "is required"})
	case t != "" && !t.Valid():
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("must be one of: %s", joinTypes())})
	}
	return errs
}

func validateTrackNumber(field string, n int) []ValidationError {
	var errs []ValidationError
	if n < 1 {
		errs = append(errs, ValidationError{Field: field, Message: "must be at least 1"})
	}
	return errs
}

func joinTypes() string {
	names := make([]string, len(AlbumTypes))
	for i, t := range AlbumTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// Validate checks the lyric line types.
func (s Song) Validate() []ValidationError {
	var errs []ValidationError
	for i, line := range s.Lyrics {
		switch line.Type {
		case LineTypeLyric, LineTypeBreak, LineTypeText:
		default:
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("lyrics[%d].type", i),
				Message: "must be one of: lyric, break, text",
			})
		}
	}
	return errs
}

// Validate checks the album type, release date and any track entries.
// An album without a type is valid; it stays out of the discography.
func (a Album) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateAlbumType("type", a.Type, false)...)
	errs = append(errs, validateReleaseDate("releaseDate", a.ReleaseDate)...)
	for n, track := range a.Songs {
		field := "songs." + strconv.Itoa(n)
		errs = append(errs, validateTrackNumber(field, n)...)
		if track.ID == "" {
			errs = append(errs, ValidationError{Field: field + ".id", Message: "is required"})
		}
	}
	return errs
}

// Validate checks that every album id is set and every track number is
// positive.
func (m Membership) Validate() []ValidationError {
	var errs []ValidationError
	for albumID, n := range m {
		if strings.TrimSpace(albumID) == "" {
			errs = append(errs, ValidationError{Field: "albumId", Message: "must not be empty"})
			continue
		}
		errs = append(errs, validateTrackNumber(albumID, n)...)
	}
	return errs
}

// Validate checks section types and that no album is listed twice.
func (d Discography) Validate() []ValidationError {
	var errs []ValidationError
	seenTypes := make(map[AlbumType]bool)
	seenAlbums := make(map[string]bool)
	for i, s := range d.Sections {
		field := fmt.Sprintf("sections[%d]", i)
		errs = append(errs, validateAlbumType(field+".type", s.Type, true)...)
		if seenTypes[s.Type] {
			errs = append(errs, ValidationError{Field: field + ".type", Message: "duplicate section type"})
		}
		seenTypes[s.Type] = true

		for j, a := range s.Albums {
			albumField := fmt.Sprintf("%s.albums[%d]", field, j)
			if a.ID == "" {
				errs = append(errs, ValidationError{Field: albumField + ".id", Message: "is required"})
				continue
			}
			if seenAlbums[a.ID] {
				errs = append(errs, ValidationError{Field: albumField + ".id", Message: "album listed more than once"})
			}
			seenAlbums[a.ID] = true
			errs = append(errs, validateReleaseDate(albumField+".releaseDate", a.ReleaseDate)...)
		}
	}
	return errs
}
