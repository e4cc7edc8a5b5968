// Package goscan derives class lattices from Go struct embedding. A
// struct that embeds other structs of the scanned packages derives from
// each of them, in field order.
package goscan

import (
	"fmt"
	"go/types"
	"os"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/funvibe/multimethods/pkg/multimethods"
)

// Type is one struct type taking part in the lattice.
type Type struct {
	Name  string
	Bases []string
}

// Result lists scanned types with every base before the types that
// derive from it.
type Result struct {
	Packages []string
	Types    []Type
}

// Scan loads the packages matching patterns from dir and collects their
// struct embedding graph. Structs that neither embed nor are embedded are
// left out.
func Scan(dir string, patterns ...string) (*Result, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes,
		Dir:  dir,
		Env:  append(os.Environ(), "GOWORK=off"),
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", pkg.PkgPath, e.Msg))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}

	res := &Result{}
	structs := make(map[*types.TypeName]*types.Struct)
	var order []*types.TypeName
	for _, pkg := range pkgs {
		res.Packages = append(res.Packages, pkg.PkgPath)
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			tn, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || tn.IsAlias() {
				continue
			}
			if st, ok := tn.Type().Underlying().(*types.Struct); ok {
				structs[tn] = st
				order = append(order, tn)
			}
		}
	}

	bases := make(map[*types.TypeName][]*types.TypeName)
	embedded := make(map[*types.TypeName]bool)
	for _, tn := range order {
		st := structs[tn]
		for i := 0; i < st.NumFields(); i++ {
			f := st.Field(i)
			if !f.Embedded() {
				continue
			}
			base := embeddedName(f.Type())
			if _, ok := structs[base]; !ok || base == tn {
				continue
			}
			bases[tn] = append(bases[tn], base)
			embedded[base] = true
		}
	}

	placed := make(map[*types.TypeName]bool)
	var place func(tn *types.TypeName)
	place = func(tn *types.TypeName) {
		if placed[tn] {
			return
		}
		placed[tn] = true
		for _, b := range bases[tn] {
			place(b)
		}
		t := Type{Name: qualified(tn)}
		for _, b := range bases[tn] {
			t.Bases = append(t.Bases, qualified(b))
		}
		res.Types = append(res.Types, t)
	}
	sort.SliceStable(order, func(i, j int) bool { return qualified(order[i]) < qualified(order[j]) })
	for _, tn := range order {
		if len(bases[tn]) > 0 || embedded[tn] {
			place(tn)
		}
	}
	return res, nil
}

func embeddedName(t types.Type) *types.TypeName {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	if n, ok := t.(*types.Named); ok {
		return n.Obj()
	}
	return nil
}

func qualified(tn *types.TypeName) string {
	return tn.Pkg().Name() + "." + tn.Name()
}

// Build registers every scanned type with reg as a class and returns them
// by name.
func (r *Result) Build(reg *multimethods.Registry) (map[string]*multimethods.Class, error) {
	classes := make(map[string]*multimethods.Class, len(r.Types))
	for _, t := range r.Types {
		bases := make([]*multimethods.Class, len(t.Bases))
		for i, b := range t.Bases {
			bases[i] = classes[b]
		}
		c, err := reg.Class(t.Name, bases...)
		if err != nil {
			return nil, fmt.Errorf("registering %s: %w", t.Name, err)
		}
		classes[t.Name] = c
	}
	return classes, nil
}
