// Package lexicon holds the phrase dictionaries applied to each unit before
// it reaches the model, and the normalizer that routes a unit through them.
package lexicon

import (
	_ "embed"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/valpere/nepatran/internal"
)

//go:embed data/dictionary.yaml
var defaultDictionary []byte

// Pair maps one phrase to its replacement.
type Pair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Variants lists the romanized spellings of a canonical Nepali word.
type Variants struct {
	Nepali    string   `json:"nepali"`
	Spellings []string `json:"spellings"`
}

// Table is the DictionaryTable. It is never modified after Load; overrides
// produce a new Table.
type Table struct {
	NepaliToEnglish []Pair
	EnglishToNepali []Pair
	Romanized       []Variants
}

// Override is a user glossary term applied on top of the built-in tables.
type Override struct {
	SourceLang string
	TargetLang string
	SourceTerm string
	TargetTerm string
}

// pairList decodes a YAML mapping while keeping key order.
type pairList []Pair

func (l *pairList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of phrases", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var p Pair
		if err := node.Content[i].Decode(&p.From); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&p.To); err != nil {
			return err
		}
		*l = append(*l, p)
	}
	return nil
}

type variantList []Variants

func (l *variantList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of romanized variants", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var v Variants
		if err := node.Content[i].Decode(&v.Nepali); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&v.Spellings); err != nil {
			return fmt.Errorf("variants of %q: %w", v.Nepali, err)
		}
		*l = append(*l, v)
	}
	return nil
}

type document struct {
	NepaliToEnglish pairList    `yaml:"nepali_to_english"`
	EnglishToNepali pairList    `yaml:"english_to_nepali"`
	Romanized       variantList `yaml:"romanized"`
}

// Load parses a YAML dictionary. Keys are folded (NFC, lower case) so they
// line up with normalized input; a repeated key keeps its first position and
// its last value.
func Load(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary: %w", err)
	}

	t := &Table{
		NepaliToEnglish: foldPairs(doc.NepaliToEnglish),
		EnglishToNepali: foldPairs(doc.EnglishToNepali),
	}
	for _, v := range doc.Romanized {
		nepali := fold(v.Nepali)
		if nepali == "" {
			continue
		}
		var spellings []string
		for _, s := range v.Spellings {
			if s = fold(s); s != "" {
				spellings = append(spellings, s)
			}
		}
		t.Romanized = append(t.Romanized, Variants{Nepali: nepali, Spellings: spellings})
	}
	return t, nil
}

// Default returns the dictionary compiled into the binary.
func Default() (*Table, error) {
	return Load(defaultDictionary)
}

// WithOverrides returns a copy of t with glossary terms merged in. A term
// whose key already exists replaces that entry's value in place; new terms
// are appended. Only Nepali/English pairs are routed, anything else is
// ignored.
func (t *Table) WithOverrides(overrides []Override) *Table {
	out := &Table{
		NepaliToEnglish: append([]Pair(nil), t.NepaliToEnglish...),
		EnglishToNepali: append([]Pair(nil), t.EnglishToNepali...),
		Romanized:       t.Romanized,
	}
	for _, o := range overrides {
		p := Pair{From: fold(o.SourceTerm), To: strings.TrimSpace(norm.NFC.String(o.TargetTerm))}
		if p.From == "" {
			continue
		}
		switch {
		case o.SourceLang == internal.LangNepali && o.TargetLang == internal.LangEnglish:
			out.NepaliToEnglish = upsert(out.NepaliToEnglish, p)
		case o.SourceLang == internal.LangEnglish && o.TargetLang == internal.LangNepali:
			out.EnglishToNepali = upsert(out.EnglishToNepali, p)
		}
	}
	return out
}

func foldPairs(in []Pair) []Pair {
	var out []Pair
	for _, p := range in {
		p.From = fold(p.From)
		p.To = strings.TrimSpace(norm.NFC.String(p.To))
		if p.From == "" {
			continue
		}
		out = upsert(out, p)
	}
	return out
}

func upsert(pairs []Pair, p Pair) []Pair {
	for i := range pairs {
		if pairs[i].From == p.From {
			pairs[i].To = p.To
			return pairs
		}
	}
	return append(pairs, p)
}

// fold applies the normalization every lookup key and input goes through.
func fold(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(s)))
}
