// Package msgcatalog resolves localized message templates with positional
// arguments, such as the outbound SMS authorization text.
package msgcatalog

import (
	"fmt"
	"sync"

	"golang.org/x/text/language"
)

// Catalog holds message templates per locale. Lookup falls back to the
// default locale when a key is missing for the requested one.
type Catalog struct {
	defaultTag language.Tag

	mu       sync.RWMutex
	messages map[language.Tag]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
}

// New creates a catalog with the given default locale (e.g. "en").
func New(defaultLocale string) (*Catalog, error) {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("invalid default locale %q: %w", defaultLocale, err)
	}
	c := &Catalog{
		defaultTag: tag,
		messages:   make(map[language.Tag]map[string]string),
	}
	c.register(tag)
	return c, nil
}

// AddMessage registers a template under the key for the locale. Templates use
// fmt verbs for positional arguments.
func (c *Catalog) AddMessage(locale, key, template string) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("invalid locale %q: %w", locale, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.messages[tag]; !exists {
		c.register(tag)
	}
	c.messages[tag][key] = template
	return nil
}

// Resolve renders the template stored under key for the closest matching
// locale, substituting args positionally.
func (c *Catalog) Resolve(key, locale string, args ...any) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// The matcher index points into the registered tags; the returned tag
	// itself may be synthesized and is not a safe map key.
	_, index := language.MatchStrings(c.matcher, locale)
	template, exists := c.messages[c.tags[index]][key]
	if !exists {
		template, exists = c.messages[c.defaultTag][key]
	}
	if !exists {
		return "", fmt.Errorf("no message registered for key %q", key)
	}
	return fmt.Sprintf(template, args...), nil
}

// register must run with the write lock held (or during construction).
func (c *Catalog) register(tag language.Tag) {
	c.messages[tag] = make(map[string]string)
	c.tags = append(c.tags, tag)
	c.matcher = language.NewMatcher(c.tags)
}
