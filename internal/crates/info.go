package crates

import (
	"time"

	"github.com/jacoelho/crator/internal/dotpath"
	"github.com/jacoelho/crator/internal/humanize"
	"github.com/jacoelho/crator/internal/query"
)

// Paths into the registry's crate response. Keys are searched textually,
// so fields that also appear in the versions list are addressed through
// the enclosing "crate" object.
const (
	pathLatest          = "crate.max_version"
	pathStable          = "crate.max_stable_version"
	pathDownloads       = "crate.downloads"
	pathRecentDownloads = "crate.recent_downloads"
	pathVersionIDs      = "crate.versions"
	pathDescription     = "crate.description"
	pathRepository      = "crate.repository"
	pathCreatedAt       = "crate.created_at"
	pathUpdatedAt       = "crate.updated_at"
	pathErrorDetail     = "errors.0.detail"

	// The crate object carries no license; the newest version comes first.
	pathLicense = "license"
)

// Info is the metadata of a single crate.
type Info struct {
	Name            string        `json:"name" yaml:"name"`
	Latest          string        `json:"latest" yaml:"latest"`
	LatestStable    string        `json:"latest_stable" yaml:"latest_stable"`
	Downloads       string        `json:"downloads" yaml:"downloads"`
	TotalDownloads  uint64        `json:"total_downloads" yaml:"total_downloads"`
	RecentDownloads uint64        `json:"recent_downloads" yaml:"recent_downloads"`
	Versions        int           `json:"versions" yaml:"versions"`
	License         string        `json:"license" yaml:"license"`
	Description     string        `json:"description" yaml:"description"`
	Repository      string        `json:"repository" yaml:"repository"`
	CreatedAt       string        `json:"created_at" yaml:"created_at"`
	UpdatedAt       string        `json:"updated_at" yaml:"updated_at"`
	Fields          []query.Field `json:"fields,omitempty" yaml:"fields,omitempty"`
	RequestID       string        `json:"request_id" yaml:"request_id"`
	StatusCode      int           `json:"status_code" yaml:"status_code"`
	BodySize        int           `json:"body_size" yaml:"body_size"`
	Elapsed         time.Duration `json:"-" yaml:"-"`
}

// parseInfo pulls the crate fields out of a registry response body.
func parseInfo(name string, body []byte, queries []query.Query) Info {
	text := string(body)
	total := dotpath.ExtractUint64(text, pathDownloads)

	return Info{
		Name:            name,
		Latest:          dotpath.Extract(text, pathLatest),
		LatestStable:    dotpath.Extract(text, pathStable),
		Downloads:       humanize.FormatNumber(total),
		TotalDownloads:  total,
		RecentDownloads: dotpath.ExtractUint64(text, pathRecentDownloads),
		Versions:        dotpath.Len(text, pathVersionIDs),
		License:         dotpath.Extract(text, pathLicense),
		Description:     dotpath.Extract(text, pathDescription),
		Repository:      dotpath.Extract(text, pathRepository),
		CreatedAt:       dotpath.Extract(text, pathCreatedAt),
		UpdatedAt:       dotpath.Extract(text, pathUpdatedAt),
		Fields:          query.Evaluate(body, queries),
		BodySize:        len(body),
	}
}
