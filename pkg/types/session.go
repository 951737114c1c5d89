// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AppState names the view the session is in. The progression is linear
// (UPLOAD → ANALYZING_PDF → BROWSING_REFS) with a reset back to UPLOAD.
type AppState string

const (
	StateUpload       AppState = "UPLOAD"
	StateAnalyzingPDF AppState = "ANALYZING_PDF"
	StateBrowsingRefs AppState = "BROWSING_REFS"
)

// Document limits enforced before any network call.
const (
	PDFContentType  = "application/pdf"
	MaxDocumentSize = 20 * 1024 * 1024
)

// Selection sentinels. Valid list positions are >= 0.
const (
	// NoSelection means nothing has been selected yet.
	NoSelection = -2

	// ManualSelection means the active result came from a typed query
	// rather than a list item.
	ManualSelection = -1
)

// Document is a file the user chose for upload.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the document size in bytes.
func (d Document) Size() int64 {
	return int64(len(d.Data))
}

// SessionState is a point-in-time copy of the controller's state.
type SessionState struct {
	State      AppState        `json:"state"`
	References []ReferenceItem `json:"references"`
	Selected   int             `json:"selected"`
	Result     *SearchResult   `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// SelectedReference returns the selected list item, if the selection points
// at one.
func (s SessionState) SelectedReference() (ReferenceItem, bool) {
	if s.Selected < 0 || s.Selected >= len(s.References) {
		return ReferenceItem{}, false
	}
	return s.References[s.Selected], true
}
