package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/amishk599/pitchdesk/internal/model"
)

const (
	rateMarker     = "Hourly Rate:"
	skillsMarker   = "Skills:"
	categoryMarker = "Categories:"
)

var cdata = strings.NewReplacer("<![CDATA[", "", "]]>", "")

// Identity returns the posting ID for a canonical link: the hex MD5 of the
// trimmed link. The same link always maps to the same posting.
func Identity(link string) string {
	sum := md5.Sum([]byte(strings.TrimSpace(link)))
	return hex.EncodeToString(sum[:])
}

// fields holds the marker-derived parts of a feed entry.
type fields struct {
	HourlyRate  string
	Skills      string
	Categories  string
	Description string
}

// parseMarkers splits the loosely structured title and body of a feed entry.
// A missing marker yields model.NotSpecified, never an error.
func parseMarkers(title, body string) fields {
	f := fields{
		HourlyRate: model.NotSpecified,
		Skills:     model.NotSpecified,
		Categories: model.NotSpecified,
	}

	if seg, ok := segment(title, rateMarker); ok {
		f.HourlyRate = strings.TrimRight(strings.TrimSpace(seg), ")")
	}
	if seg, ok := segment(body, skillsMarker); ok {
		seg, _, _ = strings.Cut(seg, categoryMarker)
		f.Skills = strings.TrimSpace(cdata.Replace(seg))
	}
	if seg, ok := segment(body, categoryMarker); ok {
		f.Categories = strings.TrimSpace(cdata.Replace(seg))
	}

	desc := body
	if i := strings.Index(desc, skillsMarker); i >= 0 {
		desc = desc[:i]
	}
	if i := strings.Index(desc, categoryMarker); i >= 0 {
		desc = desc[:i]
	}
	f.Description = strings.TrimSpace(cdata.Replace(desc))
	return f
}

// segment returns the text between the first occurrence of marker and the
// next one (or the end of s).
func segment(s, marker string) (string, bool) {
	_, rest, ok := strings.Cut(s, marker)
	if !ok {
		return "", false
	}
	if i := strings.Index(rest, marker); i >= 0 {
		rest = rest[:i]
	}
	return rest, true
}
