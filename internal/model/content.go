package model

import (
	"strconv"

	"github.com/pkg/errors"
)

// Content is the closed set of media payloads a regular message can carry.
// All paths are relative to the dataset root; files are not required to
// exist on disk.
type Content interface{ content() }

type ContentSticker struct {
	Path          *string `json:"path,omitempty"`
	Width         int32   `json:"width"`
	Height        int32   `json:"height"`
	ThumbnailPath *string `json:"thumbnailPath,omitempty"`
	Emoji         *string `json:"emoji,omitempty"`
}

type ContentPhoto struct {
	Path   *string `json:"path,omitempty"`
	Width  int32   `json:"width"`
	Height int32   `json:"height"`
}

type ContentVoiceMsg struct {
	Path        *string `json:"path,omitempty"`
	MimeType    *string `json:"mimeType,omitempty"`
	DurationSec *int32  `json:"durationSec,omitempty"`
}

type ContentAudio struct {
	Path        *string `json:"path,omitempty"`
	Title       *string `json:"title,omitempty"`
	Performer   *string `json:"performer,omitempty"`
	MimeType    *string `json:"mimeType,omitempty"`
	DurationSec *int32  `json:"durationSec,omitempty"`
}

type ContentVideoMsg struct {
	Path          *string `json:"path,omitempty"`
	Width         int32   `json:"width"`
	Height        int32   `json:"height"`
	MimeType      *string `json:"mimeType,omitempty"`
	DurationSec   *int32  `json:"durationSec,omitempty"`
	ThumbnailPath *string `json:"thumbnailPath,omitempty"`
}

type ContentVideo struct {
	Path          *string `json:"path,omitempty"`
	Title         *string `json:"title,omitempty"`
	Performer     *string `json:"performer,omitempty"`
	Width         int32   `json:"width"`
	Height        int32   `json:"height"`
	MimeType      *string `json:"mimeType,omitempty"`
	DurationSec   *int32  `json:"durationSec,omitempty"`
	ThumbnailPath *string `json:"thumbnailPath,omitempty"`
}

type ContentFile struct {
	Path          *string `json:"path,omitempty"`
	FileName      *string `json:"fileName,omitempty"`
	MimeType      *string `json:"mimeType,omitempty"`
	ThumbnailPath *string `json:"thumbnailPath,omitempty"`
}

// ContentLocation keeps coordinates as the exact strings the source provided
// so no precision is lost in round trips.
type ContentLocation struct {
	Title       *string `json:"title,omitempty"`
	Address     *string `json:"address,omitempty"`
	LatStr      string  `json:"latStr"`
	LonStr      string  `json:"lonStr"`
	DurationSec *int32  `json:"durationSec,omitempty"`
}

// Lat parses the stored latitude.
func (c *ContentLocation) Lat() (float64, error) {
	v, err := strconv.ParseFloat(c.LatStr, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrParseFailure, "latitude %q", c.LatStr)
	}
	return v, nil
}

// Lon parses the stored longitude.
func (c *ContentLocation) Lon() (float64, error) {
	v, err := strconv.ParseFloat(c.LonStr, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrParseFailure, "longitude %q", c.LonStr)
	}
	return v, nil
}

type ContentPoll struct {
	Question string `json:"question"`
}

type ContentSharedContact struct {
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	VcardPath   *string `json:"vcardPath,omitempty"`
}

// PrettyName renders the shared contact the same way User does.
func (c *ContentSharedContact) PrettyName() string {
	u := User{FirstName: c.FirstName, LastName: c.LastName, PhoneNumber: c.PhoneNumber}
	return u.PrettyName()
}

func (*ContentSticker) content()       {}
func (*ContentPhoto) content()         {}
func (*ContentVoiceMsg) content()      {}
func (*ContentAudio) content()         {}
func (*ContentVideoMsg) content()      {}
func (*ContentVideo) content()         {}
func (*ContentFile) content()          {}
func (*ContentLocation) content()      {}
func (*ContentPoll) content()          {}
func (*ContentSharedContact) content() {}

// contentFilesRelative enumerates the relative paths a content payload
// references. The switch is exhaustive over all variants.
func contentFilesRelative(c Content) []string {
	switch v := c.(type) {
	case *ContentSticker:
		return collectPaths(v.Path, v.ThumbnailPath)
	case *ContentPhoto:
		return collectPaths(v.Path)
	case *ContentVoiceMsg:
		return collectPaths(v.Path)
	case *ContentAudio:
		return collectPaths(v.Path)
	case *ContentVideoMsg:
		return collectPaths(v.Path, v.ThumbnailPath)
	case *ContentVideo:
		return collectPaths(v.Path, v.ThumbnailPath)
	case *ContentFile:
		return collectPaths(v.Path, v.ThumbnailPath)
	case *ContentLocation:
		return nil
	case *ContentPoll:
		return nil
	case *ContentSharedContact:
		return collectPaths(v.VcardPath)
	case nil:
		return nil
	}
	panic("unhandled content variant")
}

// contentSearchable lists the search-relevant components of a payload.
// Absent (nil) fields contribute nothing; present fields are kept as-is.
func contentSearchable(c Content) []string {
	switch v := c.(type) {
	case *ContentSticker:
		return collectStrs(v.Emoji)
	case *ContentPhoto:
		return nil
	case *ContentVoiceMsg:
		return nil
	case *ContentAudio:
		return collectStrs(v.Title, v.Performer)
	case *ContentVideoMsg:
		return nil
	case *ContentVideo:
		return collectStrs(v.Title, v.Performer)
	case *ContentFile:
		return collectStrs(v.FileName)
	case *ContentLocation:
		return append(collectStrs(v.Address, v.Title), v.LatStr, v.LonStr)
	case *ContentPoll:
		return []string{v.Question}
	case *ContentSharedContact:
		return collectStrs(v.FirstName, v.LastName, v.PhoneNumber)
	case nil:
		return nil
	}
	panic("unhandled content variant")
}

func collectPaths(paths ...*string) []string {
	var out []string
	for _, p := range paths {
		if s := strOrEmpty(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func collectStrs(ptrs ...*string) []string {
	var out []string
	for _, p := range ptrs {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}
