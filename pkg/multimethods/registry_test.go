package multimethods_test

import (
	"errors"
	"testing"

	"github.com/funvibe/multimethods/internal/config"
	mm "github.com/funvibe/multimethods/pkg/multimethods"
)

func TestRegistryOptions(t *testing.T) {
	off := false
	manual := &config.Options{AutoRebuild: &off}

	tests := []struct {
		name string
		opts []mm.Option
		auto bool
	}{
		{"defaults", nil, true},
		{"nil config", []mm.Option{mm.WithConfig(nil)}, true},
		{"config", []mm.Option{mm.WithConfig(manual)}, false},
		{"override before config", []mm.Option{mm.WithAutoRebuild(false), mm.WithConfig(config.Default())}, false},
		{"override after config", []mm.Option{mm.WithConfig(manual), mm.WithAutoRebuild(true)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mm.NewRegistry(tt.opts...)
			animal := r.MustClass("Animal")
			m := r.MustDefine("m", mm.Virtual(animal))
			m.MustAdd("any", returns("any"), animal)

			got, err := m.Call(sel(animal))
			if tt.auto {
				if err != nil || got != "any" {
					t.Errorf("Call = %v, %v; want any", got, err)
				}
				return
			}
			if !errors.Is(err, mm.ErrNotInitialized) {
				t.Errorf("err = %v, want not initialized", err)
			}
		})
	}
}
