// Package schema loads class lattices and multimethods described in YAML
// and registers them with a Registry. Every specialization body returns
// its label, which makes schema files useful for inspecting how a design
// dispatches before writing the real implementations.
//
//	classes:
//	  - name: Animal
//	  - name: Cow
//	    bases: [Animal]
//	multimethods:
//	  - name: encounter
//	    params: [Animal, Animal, _]
//	    specializations:
//	      - label: ignore
//	        classes: [Animal, Animal]
package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/multimethods/internal/config"
	"github.com/funvibe/multimethods/pkg/multimethods"
)

// File is the top-level schema document.
type File struct {
	Classes      []ClassDecl  `yaml:"classes"`
	Multimethods []MethodDecl `yaml:"multimethods"`
}

// ClassDecl declares one class. Bases must be declared earlier.
type ClassDecl struct {
	Name  string   `yaml:"name"`
	Bases []string `yaml:"bases,omitempty"`
}

// MethodDecl declares a multimethod. Each param is a class name for a
// virtual position or "_" for an ordinary one.
type MethodDecl struct {
	Name            string     `yaml:"name"`
	Params          []string   `yaml:"params"`
	Specializations []SpecDecl `yaml:"specializations,omitempty"`
}

// SpecDecl declares a specialization, one class per virtual param.
type SpecDecl struct {
	Label   string   `yaml:"label"`
	Classes []string `yaml:"classes"`
}

// Load reads and parses a schema file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses schema content from bytes.
// The path argument is used only for error messages.
func Parse(data []byte, path string) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := f.validate(path); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate(path string) error {
	if len(f.Classes) == 0 {
		return fmt.Errorf("%s: no classes defined", path)
	}
	declared := make(map[string]bool)
	for i, c := range f.Classes {
		if c.Name == "" {
			return fmt.Errorf("%s: classes[%d]: name is required", path, i)
		}
		if c.Name == config.OrdinaryParam {
			return fmt.Errorf("%s: classes[%d]: %q is reserved", path, i, c.Name)
		}
		if declared[c.Name] {
			return fmt.Errorf("%s: classes[%d]: %s declared twice", path, i, c.Name)
		}
		for _, b := range c.Bases {
			if !declared[b] {
				return fmt.Errorf("%s: class %s: base %s must be declared first", path, c.Name, b)
			}
		}
		declared[c.Name] = true
	}

	seen := make(map[string]bool)
	for i, m := range f.Multimethods {
		if m.Name == "" {
			return fmt.Errorf("%s: multimethods[%d]: name is required", path, i)
		}
		if seen[m.Name] {
			return fmt.Errorf("%s: multimethod %s declared twice", path, m.Name)
		}
		seen[m.Name] = true
		virtuals := 0
		for _, p := range m.Params {
			if p == config.OrdinaryParam {
				continue
			}
			if !declared[p] {
				return fmt.Errorf("%s: multimethod %s: unknown class %s", path, m.Name, p)
			}
			virtuals++
		}
		if virtuals == 0 {
			return fmt.Errorf("%s: multimethod %s: no virtual param", path, m.Name)
		}
		for j, s := range m.Specializations {
			if s.Label == "" {
				return fmt.Errorf("%s: multimethod %s: specializations[%d]: label is required", path, m.Name, j)
			}
			if len(s.Classes) != virtuals {
				return fmt.Errorf("%s: multimethod %s: %s has %d classes, want %d",
					path, m.Name, s.Label, len(s.Classes), virtuals)
			}
			for _, c := range s.Classes {
				if !declared[c] {
					return fmt.Errorf("%s: multimethod %s: %s: unknown class %s", path, m.Name, s.Label, c)
				}
			}
		}
	}
	return nil
}

// Build registers every class, multimethod and specialization of f with
// reg, in file order.
func (f *File) Build(reg *multimethods.Registry) error {
	for _, decl := range f.Classes {
		bases := make([]*multimethods.Class, len(decl.Bases))
		for i, b := range decl.Bases {
			bases[i], _ = reg.LookupClass(b)
		}
		if _, err := reg.Class(decl.Name, bases...); err != nil {
			return err
		}
	}
	for _, decl := range f.Multimethods {
		positions := make([]multimethods.Position, len(decl.Params))
		for i, p := range decl.Params {
			if p == config.OrdinaryParam {
				positions[i] = multimethods.Ordinary()
				continue
			}
			c, _ := reg.LookupClass(p)
			positions[i] = multimethods.Virtual(c)
		}
		m, err := reg.Define(decl.Name, positions...)
		if err != nil {
			return err
		}
		for _, s := range decl.Specializations {
			classes := make([]*multimethods.Class, len(s.Classes))
			for i, name := range s.Classes {
				classes[i], _ = reg.LookupClass(name)
			}
			if _, err := m.Add(s.Label, labelBody(s.Label), classes...); err != nil {
				return err
			}
		}
	}
	return nil
}

func labelBody(label string) multimethods.Body {
	return func(*multimethods.Call, ...any) (any, error) { return label, nil }
}

// Instances returns one value per named class, for calling schema
// multimethods. Ordinary params take "_" and are passed as nil.
func Instances(reg *multimethods.Registry, names ...string) ([]any, error) {
	args := make([]any, len(names))
	for i, name := range names {
		if name == config.OrdinaryParam {
			continue
		}
		c, ok := reg.LookupClass(name)
		if !ok {
			return nil, fmt.Errorf("unknown class %s", name)
		}
		args[i] = multimethods.NewSelector(c)
	}
	return args, nil
}
