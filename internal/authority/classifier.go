package authority

import (
	"net/url"
	"strings"

	"github.com/ppiankov/fcyf/internal/model"
)

// Classifier labels evidence records with an authority tier by host
type Classifier struct {
	domainMap map[string]model.AuthorityTier
	primary   []string
	secondary []string
}

// NewClassifier creates a classifier from config; nil uses the defaults
func NewClassifier(config *model.AuthorityConfig) *Classifier {
	if config == nil {
		config = &model.DefaultConfig().Authority
	}

	c := &Classifier{
		domainMap: make(map[string]model.AuthorityTier, len(config.Overrides)),
		primary:   normalizeDomains(config.PrimaryDomains),
		secondary: normalizeDomains(config.SecondaryDomains),
	}
	for _, o := range config.Overrides {
		host := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(o.Domain)), "www.")
		c.domainMap[host] = ParseTier(o.Tier)
	}

	return c
}

// Classify returns the tier for a URL. Unparseable URLs are tertiary.
func (c *Classifier) Classify(rawURL string) model.AuthorityTier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return model.TierTertiary
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	// Explicit mappings win
	if tier, ok := c.domainMap[host]; ok {
		return tier
	}

	if matchesAny(host, c.primary) {
		return model.TierPrimary
	}
	if matchesAny(host, c.secondary) {
		return model.TierSecondary
	}

	return model.TierTertiary
}

// Label returns a copy of records with Authority set. Order is preserved.
func (c *Classifier) Label(records []model.EvidenceRecord) []model.EvidenceRecord {
	out := make([]model.EvidenceRecord, len(records))
	for i, rec := range records {
		rec.Authority = c.Classify(rec.URL)
		out[i] = rec
	}
	return out
}

// ParseTier converts a tier string to AuthorityTier
func ParseTier(tier string) model.AuthorityTier {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "primary", "1":
		return model.TierPrimary
	case "secondary", "2":
		return model.TierSecondary
	default:
		return model.TierTertiary
	}
}

// matchesAny reports whether host equals a domain or is a subdomain of it
// (foo.gov.uk matches gov.uk; "gov" matches any .gov host)
func matchesAny(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}
