package language

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"lipsync/internal/textutil"
	"lipsync/internal/viseme"
)

// ErrUnknownLanguage is returned when a profile name cannot be resolved.
var ErrUnknownLanguage = errors.New("unknown language")

//go:embed profiles/*.yaml
var builtinProfiles embed.FS

type profileDoc struct {
	Name    string `yaml:"name"`
	Display string `yaml:"display"`
	Code    string `yaml:"code"`
	Aligner struct {
		Dialect string `yaml:"dialect"`
		Version string `yaml:"version"`
		Root    string `yaml:"root"`
		Command string `yaml:"command"`
		Lexicon string `yaml:"lexicon"`
		Model   string `yaml:"model"`
	} `yaml:"aligner"`
	Categories []string  `yaml:"categories"`
	Phones     yaml.Node `yaml:"phones"`
}

// Catalogue is the ordered set of available profiles.
type Catalogue struct {
	profiles []Profile
}

// Builtin returns the catalogue of embedded profiles.
func Builtin() (*Catalogue, error) {
	return LoadCatalogue("")
}

// LoadCatalogue returns the built-in profiles plus every *.yaml profile found
// in dir. A file whose name matches a built-in profile replaces it.
func LoadCatalogue(dir string) (*Catalogue, error) {
	cat := &Catalogue{}
	entries, err := fs.Glob(builtinProfiles, "profiles/*.yaml")
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return builtinOrder(entries[i]) < builtinOrder(entries[j]) })
	for _, name := range entries {
		data, err := builtinProfiles.ReadFile(name)
		if err != nil {
			return nil, err
		}
		profile, err := parseProfile(data)
		if err != nil {
			return nil, fmt.Errorf("builtin profile %s: %w", name, err)
		}
		cat.put(profile)
	}

	dir = strings.TrimSpace(dir)
	if dir == "" {
		return cat, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read profile %s: %w", path, err)
		}
		profile, err := parseProfile(data)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", path, err)
		}
		cat.put(profile)
	}
	return cat, nil
}

func builtinOrder(name string) int {
	if strings.HasSuffix(name, "english.yaml") {
		return 0
	}
	return 1
}

func (c *Catalogue) put(p Profile) {
	for i := range c.profiles {
		if c.profiles[i].Name == p.Name {
			c.profiles[i] = p
			return
		}
	}
	c.profiles = append(c.profiles, p)
}

// Profiles returns every profile in catalogue order.
func (c *Catalogue) Profiles() []Profile {
	return append([]Profile(nil), c.profiles...)
}

// Names returns the profile keys in catalogue order.
func (c *Catalogue) Names() []string {
	names := make([]string, len(c.profiles))
	for i, p := range c.profiles {
		names[i] = p.Name
	}
	return names
}

// Lookup resolves a profile by name, display name, or BCP 47 tag
// ("zh-CN" selects the profile whose code is "zh").
func (c *Catalogue) Lookup(name string) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Profile{}, fmt.Errorf("%w: empty name", ErrUnknownLanguage)
	}
	for _, p := range c.profiles {
		if p.Name == key || strings.ToLower(p.Display) == key {
			return p, nil
		}
	}
	if tag, err := xlanguage.Parse(key); err == nil {
		base, _ := tag.Base()
		for _, p := range c.profiles {
			if p.Code != "" && p.Code == base.String() {
				return p, nil
			}
		}
	}
	return Profile{}, fmt.Errorf("%w %q%s", ErrUnknownLanguage, name, textutil.DidYouMean(key, c.Names()))
}

func parseProfile(data []byte) (Profile, error) {
	var doc profileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Profile{}, fmt.Errorf("parse: %w", err)
	}
	name := strings.ToLower(strings.TrimSpace(doc.Name))
	if name == "" {
		return Profile{}, errors.New("profile name must be set")
	}
	if len(doc.Categories) == 0 {
		return Profile{}, errors.New("categories must not be empty")
	}

	categories := make([]viseme.Category, len(doc.Categories))
	for i, c := range doc.Categories {
		categories[i] = viseme.Category(strings.TrimSpace(c))
	}

	table, order, err := decodePhones(&doc.Phones)
	if err != nil {
		return Profile{}, err
	}
	classifier, err := viseme.NewClassifier(categories, table, order)
	if err != nil {
		return Profile{}, err
	}

	dialect := Dialect(strings.ToLower(strings.TrimSpace(doc.Aligner.Dialect)))
	switch dialect {
	case "":
		dialect = DialectV1
	case DialectV1, DialectV3:
	default:
		return Profile{}, fmt.Errorf("aligner.dialect must be v1 or v3, got %q", doc.Aligner.Dialect)
	}

	display := strings.TrimSpace(doc.Display)
	if display == "" {
		display = cases.Title(xlanguage.English).String(name)
	}

	return Profile{
		Name:       name,
		Display:    display,
		Code:       strings.ToLower(strings.TrimSpace(doc.Code)),
		Classifier: classifier,
		Registry:   viseme.NewRegistry(categories),
		Aligner: AlignerSpec{
			Dialect: dialect,
			Version: strings.TrimSpace(doc.Aligner.Version),
			Root:    strings.TrimSpace(doc.Aligner.Root),
			Command: strings.TrimSpace(doc.Aligner.Command),
			Lexicon: strings.TrimSpace(doc.Aligner.Lexicon),
			Model:   strings.TrimSpace(doc.Aligner.Model),
		},
	}, nil
}

// decodePhones walks the phones mapping node so table order survives.
func decodePhones(node *yaml.Node) (map[string]viseme.Category, []string, error) {
	if node.Kind == 0 {
		return map[string]viseme.Category{}, nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("phones must be a mapping (line %d)", node.Line)
	}
	table := make(map[string]viseme.Category, len(node.Content)/2)
	order := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, nil, fmt.Errorf("phones.%s must be a category name (line %d)", key.Value, value.Line)
		}
		table[key.Value] = viseme.Category(strings.TrimSpace(value.Value))
		order = append(order, key.Value)
	}
	return table, order, nil
}
