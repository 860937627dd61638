// Package texts holds the bot's user-facing strings in embedded YAML
// catalogs, one per locale.
package texts

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

// DefaultLocale is used for keys missing from another locale.
const DefaultLocale = "ru"

//go:embed locales
var LocalesFS embed.FS

// Catalog resolves message keys for one locale.
type Catalog struct {
	locale   string
	messages map[string]string
	fallback *Catalog
}

// Load reads the catalog for locale from the embedded locales.
func Load(locale string) (*Catalog, error) {
	return NewCatalog(LocalesFS, locale)
}

// NewCatalog reads locales/<locale>.yaml from fsys. Unless locale is the
// default, keys it lacks fall back to the default locale.
func NewCatalog(fsys fs.FS, locale string) (*Catalog, error) {
	messages, err := readLocale(fsys, locale)
	if err != nil {
		return nil, err
	}

	c := &Catalog{locale: locale, messages: messages}
	if locale != DefaultLocale {
		fallback, err := readLocale(fsys, DefaultLocale)
		if err != nil {
			return nil, err
		}
		c.fallback = &Catalog{locale: DefaultLocale, messages: fallback}
	}
	return c, nil
}

func readLocale(fsys fs.FS, locale string) (map[string]string, error) {
	filePath := path.Join("locales", locale+".yaml")

	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read message catalog %s: %w", filePath, err)
	}

	var messages map[string]string
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse message catalog %s: %w", filePath, err)
	}
	return messages, nil
}

// Locale returns the catalog's locale code.
func (c *Catalog) Locale() string { return c.locale }

// T returns the message for key formatted with args.
// Unknown keys are returned as-is so a missing string is visible but harmless.
func (c *Catalog) T(key string, args ...any) string {
	format, ok := c.lookup(key)
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Has reports whether key resolves in this catalog or its fallback.
func (c *Catalog) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

func (c *Catalog) lookup(key string) (string, bool) {
	if msg, ok := c.messages[key]; ok {
		return msg, true
	}
	if c.fallback != nil {
		return c.fallback.lookup(key)
	}
	return "", false
}
