package model

// EvidenceRecord is one retrieved web source, normalized across providers
type EvidenceRecord struct {
	Title     string        `json:"title"`               // Falls back to URL when the provider has none
	URL       string        `json:"url"`                 // Required
	Snippet   string        `json:"snippet"`             // Content excerpt, may be empty
	Date      string        `json:"date"`                // Free-form publication date, may be empty
	Authority AuthorityTier `json:"authority,omitempty"` // Set by the pipeline, never by providers
}

// Source returns the citation form of the record (snippet dropped)
func (e EvidenceRecord) Source() Source {
	return Source{
		Title: e.Title,
		URL:   e.URL,
		Date:  e.Date,
	}
}

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Government, academic, official documents
	TierSecondary AuthorityTier = 2 // Encyclopedias, major publishers, reputable media
	TierTertiary  AuthorityTier = 3 // Blogs, personal websites, everything else
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}
