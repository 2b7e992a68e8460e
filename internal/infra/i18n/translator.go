package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Translator resolves UI string keys for one language.
type Translator struct {
	translations map[string]string
}

// NewTranslator loads locales/<lang>.yaml from fsys.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", fmt.Sprintf("%s.yaml", langCode))
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	return newTranslatorFromBytes(data)
}

// NewDefault loads the embedded locale, falling back to English.
func NewDefault(langCode string) (*Translator, error) {
	t, err := NewTranslator(LocalesFS, langCode)
	if err != nil && langCode != "en" {
		return NewTranslator(LocalesFS, "en")
	}
	return t, err
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

// T returns the translation for key, formatted with args; unknown keys come back verbatim.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// TimestampLayout renders conversation ids for people.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t in the local time zone.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}
