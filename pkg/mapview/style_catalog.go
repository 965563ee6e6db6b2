package mapview

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Style is a resolved style identifier.
type Style struct {
	// ID is the caller-facing identifier, e.g. "streets".
	ID string
	// URL is what the surface loads.
	URL string
}

// tokenPlaceholder is substituted with the catalog's access token.
const tokenPlaceholder = "{token}"

// DefaultStyles returns the built-in style identifiers.
func DefaultStyles() map[string]string {
	return map[string]string{
		"streets":           "mapbox://styles/mapbox/streets-v12",
		"outdoors":          "mapbox://styles/mapbox/outdoors-v12",
		"light":             "mapbox://styles/mapbox/light-v11",
		"dark":              "mapbox://styles/mapbox/dark-v11",
		"satellite":         "mapbox://styles/mapbox/satellite-v9",
		"satellite-streets": "mapbox://styles/mapbox/satellite-streets-v12",
	}
}

// StyleCatalog maps opaque style identifiers to loadable style URLs.
// All methods are safe for concurrent use.
type StyleCatalog struct {
	mu     sync.RWMutex
	styles map[string]string
	token  string
}

// NewStyleCatalog returns a catalog holding the default styles overlaid with
// styles. URLs may contain "{token}", which is replaced by accessToken.
func NewStyleCatalog(accessToken string, styles map[string]string) *StyleCatalog {
	c := &StyleCatalog{
		styles: DefaultStyles(),
		token:  accessToken,
	}
	for id, url := range styles {
		c.styles[id] = url
	}
	return c
}

// Register adds or replaces a style.
func (c *StyleCatalog) Register(id, url string) {
	c.mu.Lock()
	c.styles[id] = url
	c.mu.Unlock()
}

// Resolve returns the style for id. Identifiers containing "://" are treated
// as literal style URLs. An empty or unknown id yields an error wrapping
// [ErrInvalidConfiguration].
func (c *StyleCatalog) Resolve(id string) (Style, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Style{}, &ConfigError{Field: "style", Value: `""`, Reason: "must not be empty"}
	}

	c.mu.RLock()
	url, ok := c.styles[id]
	token := c.token
	c.mu.RUnlock()

	if !ok {
		if !strings.Contains(id, "://") {
			return Style{}, fmt.Errorf("%w %q", ErrUnknownStyle, id)
		}
		url = id
	}
	return Style{ID: id, URL: strings.ReplaceAll(url, tokenPlaceholder, token)}, nil
}

// IDs returns the registered identifiers in sorted order.
func (c *StyleCatalog) IDs() []string {
	c.mu.RLock()
	ids := make([]string, 0, len(c.styles))
	for id := range c.styles {
		ids = append(ids, id)
	}
	c.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
