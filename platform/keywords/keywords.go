// Package keywords loads the Portuguese keyword lexicon used to score and
// classify inbound lead messages. The lexicon ships embedded so the binary
// is self-contained, but an override file can be supplied for tuning terms
// without a rebuild.
package keywords

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var embedded embed.FS

// ProductFamily is a group of synonyms naming one product or service line.
// A message mentioning any term of a family counts the family once.
type ProductFamily struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
}

// Professional groups terms that indicate the sender works in the target
// profession.
type Professional struct {
	Lawyer     []string `yaml:"lawyer"`
	Specialist []string `yaml:"specialist"`
	Workplace  []string `yaml:"workplace"`
}

// OffDomain groups terms for adjacent industries the product does not serve.
type OffDomain struct {
	Insurance []string `yaml:"insurance"`
	Banking   []string `yaml:"banking"`
	Courses   []string `yaml:"courses"`
}

// Lexicon is the full keyword configuration.
type Lexicon struct {
	ProductFamilies []ProductFamily `yaml:"product_families"`
	Professional    Professional    `yaml:"professional"`
	Need            []string        `yaml:"need"`
	Urgency         []string        `yaml:"urgency"`
	Temporal        []string        `yaml:"temporal"`
	Price           []string        `yaml:"price"`
	Greetings       []string        `yaml:"greetings"`
	OffDomain       OffDomain       `yaml:"off_domain"`

	greetingSet map[string]struct{}
}

// Config supplies the optional override path for the lexicon file.
type Config interface {
	GetLexiconPath() string
}

// Load returns the lexicon from the configured override path, or the
// embedded default when no path is set.
func Load(cfg Config) (*Lexicon, error) {
	if path := cfg.GetLexiconPath(); path != "" {
		return LoadFile(path)
	}
	return Default()
}

// Default loads the embedded lexicon.
func Default() (*Lexicon, error) {
	data, err := embedded.ReadFile("lexicon.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded lexicon: %w", err)
	}
	return parse(data)
}

// LoadFile loads a lexicon from an override file on disk.
func LoadFile(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if len(lex.ProductFamilies) == 0 {
		return nil, fmt.Errorf("lexicon has no product families")
	}

	lex.greetingSet = make(map[string]struct{}, len(lex.Greetings))
	for _, g := range lex.Greetings {
		lex.greetingSet[NormalizeText(g)] = struct{}{}
	}
	return &lex, nil
}

// NormalizeText lowercases, trims surrounding whitespace and strips trailing
// punctuation. It is the canonical form for exact keyword comparisons.
func NormalizeText(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	return strings.TrimRight(normalized, "!?.,;: ")
}

// IsGreeting reports whether the message is a bare greeting. The comparison
// is exact on the normalized text, so "oi, preciso do laudo" is not a
// greeting while "Oi!" is.
func (l *Lexicon) IsGreeting(text string) bool {
	_, ok := l.greetingSet[NormalizeText(text)]
	return ok
}

// ContainsAny reports whether the lowercased text contains any of the terms.
func ContainsAny(lowered string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}

// MatchedFamilies returns the product families the lowercased text mentions.
func (l *Lexicon) MatchedFamilies(lowered string) []string {
	var matched []string
	for _, family := range l.ProductFamilies {
		if ContainsAny(lowered, family.Terms) {
			matched = append(matched, family.Name)
		}
	}
	return matched
}
