package samples

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
)

var (
	ErrUnknownGroup = errors.New("unknown sample group")
	ErrMissingAsset = errors.New("sample image is missing")
	ErrLiveSource   = errors.New("live frame unavailable")
)

// Frame is an encoded image plus the name it is published under.
type Frame struct {
	Name string
	Data []byte
}

type Variant struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Set maps a group name to its two variants.
type Set map[string][]Variant

// DefaultSet returns the bundled demo images under dir.
func DefaultSet(dir string) Set {
	v := func(name string) Variant {
		return Variant{Name: name, Path: filepath.Join(dir, name+".jpg")}
	}
	return Set{
		"front":   {v("front0"), v("front90")},
		"back":    {v("back45"), v("back135")},
		"kitchen": {v("kitchen0"), v("kitchen135")},
	}
}

func (s Set) Validate() error {
	for group, variants := range s {
		if len(variants) != 2 {
			return fmt.Errorf("sample group %q needs exactly 2 variants, has %d", group, len(variants))
		}
		for _, variant := range variants {
			if variant.Name == "" || variant.Path == "" {
				return fmt.Errorf("sample group %q has a variant without name or path", group)
			}
		}
	}
	return nil
}

func (s Set) Groups() []string {
	groups := make([]string, 0, len(s))
	for group := range s {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	return groups
}

// Rand is the slice of math/rand/v2 the picker needs.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

type Picker struct {
	set Set
	rnd Rand
}

// NewPicker validates set and returns a picker. A nil rnd uses the global
// math/rand/v2 source.
func NewPicker(set Set, rnd Rand) (*Picker, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Picker{set: set, rnd: rnd}, nil
}

// Pick chooses one of the group's variants uniformly and reads it from disk.
func (p *Picker) Pick(group string) (Frame, error) {
	variants, ok := p.set[group]
	if !ok {
		return Frame{}, fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}

	variant := variants[p.rnd.IntN(len(variants))]

	data, err := os.ReadFile(variant.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Frame{}, fmt.Errorf("%w: %s", ErrMissingAsset, variant.Path)
	}
	if err != nil {
		return Frame{}, fmt.Errorf("failed to read sample %s: %w", variant.Path, err)
	}

	return Frame{Name: variant.Name, Data: data}, nil
}
