package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kierank/feedor/adapter"
)

// AdapterTemplate is one operator-defined HTML adapter, loadable from an
// adapters.yaml file without a rebuild — an extension point beyond the
// three built-in schemes (tg/lb/mk) baked into Dispatch.
type AdapterTemplate struct {
	Scheme       string                     `yaml:"scheme"`
	ItemSelector string                     `yaml:"item_selector"`
	Fields       map[string]SelectorConfig  `yaml:"fields"`
}

// SelectorConfig is the YAML-serializable form of adapter.Selector.
type SelectorConfig struct {
	Kind  string `yaml:"kind"`
	Sel   string `yaml:"sel"`
	Attr  string `yaml:"attr"`
	Regex string `yaml:"regex"`
	Group int    `yaml:"group"`
}

var selectorKinds = map[string]adapter.SelectorKind{
	"text":             adapter.KindText,
	"html":             adapter.KindHTML,
	"attr":             adapter.KindAttr,
	"attr_regex":       adapter.KindAttrRegex,
	"enclosures":       adapter.KindEnclosures,
	"enclosures_regex": adapter.KindEnclosuresRegex,
}

func (s SelectorConfig) toSelector() (adapter.Selector, error) {
	kind, ok := selectorKinds[s.Kind]
	if !ok {
		return adapter.Selector{}, fmt.Errorf("unknown selector kind %q", s.Kind)
	}
	return adapter.Selector{Kind: kind, Sel: s.Sel, Attr: s.Attr, Regex: s.Regex, Group: s.Group}, nil
}

// AdapterRegistry maps a feeds.txt scheme to the template used to build
// its HTMLAdapter.
type AdapterRegistry map[string]AdapterTemplate

// LoadAdapterRegistry reads an adapters.yaml file. A missing file is not
// an error: it returns an empty registry, since this extension point is
// optional.
func LoadAdapterRegistry(path string) (AdapterRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return AdapterRegistry{}, nil
		}
		return nil, fmt.Errorf("read adapter registry %s: %w", path, err)
	}

	var templates []AdapterTemplate
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("parse adapter registry %s: %w", path, err)
	}

	reg := make(AdapterRegistry, len(templates))
	for _, t := range templates {
		reg[t.Scheme] = t
	}
	return reg, nil
}

// Build constructs an HTMLAdapter from the template for the given URL
// argument (the feeds.txt line's first argument after the scheme).
func (t AdapterTemplate) Build(url string) (adapter.HTMLAdapter, error) {
	fields := make(map[string]adapter.Selector, len(t.Fields))
	for name, sc := range t.Fields {
		sel, err := sc.toSelector()
		if err != nil {
			return adapter.HTMLAdapter{}, fmt.Errorf("field %q: %w", name, err)
		}
		fields[name] = sel
	}
	return adapter.HTMLAdapter{
		URL:          url,
		ItemSelector: t.ItemSelector,
		Fields:       fields,
		ParseTime:    adapter.ParseTime,
	}, nil
}
