// Package script renders the Lua programs that implement every cache operation.
//
// All programs share one prelude (batched unpack, untag, sweep, deadline) so the
// read path and the background expirer evict through exactly the same code.
// KEYS[1] is always the expiration index, which keeps sources independent of
// the instance prefix.
package script

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/unkn0wn-root/tagcache/internal/batch"
	"github.com/unkn0wn-root/tagcache/internal/keys"
	"github.com/unkn0wn-root/tagcache/store"
)

//go:embed lua/*.lua
var sources embed.FS

// Refresh script replies.
const (
	RefreshMissing   = 0
	RefreshImmortal  = 1
	RefreshRefreshed = 2
)

// Set holds one compiled Script per operation.
type Set struct {
	Get        *store.Script
	Set        *store.Script
	Refresh    *store.Script
	Remove     *store.Script
	Tag        *store.Script
	Invalidate *store.Script
	Expire     *store.Script
}

// Params are the template inputs shared by every program.
type Params struct {
	Batch      int
	TagsSuffix string
}

// DefaultParams matches the Go-side chunker and key codec.
func DefaultParams() Params {
	return Params{Batch: batch.Limit, TagsSuffix: keys.TagsSuffix}
}

// Load renders all programs with p.
func Load(p Params) (*Set, error) {
	if p.Batch <= 0 {
		return nil, fmt.Errorf("script: batch must be positive, got %d", p.Batch)
	}
	tpl, err := template.ParseFS(sources, "lua/*.lua")
	if err != nil {
		return nil, fmt.Errorf("script: parse: %w", err)
	}

	render := func(name string) (*store.Script, error) {
		var buf bytes.Buffer
		if err := tpl.ExecuteTemplate(&buf, name+".lua", p); err != nil {
			return nil, fmt.Errorf("script: render %s: %w", name, err)
		}
		return store.NewScript(name, buf.String()), nil
	}

	s := &Set{}
	for _, it := range []struct {
		name string
		dst  **store.Script
	}{
		{"get", &s.Get},
		{"set", &s.Set},
		{"refresh", &s.Refresh},
		{"remove", &s.Remove},
		{"tag", &s.Tag},
		{"invalidate", &s.Invalidate},
		{"expire", &s.Expire},
	} {
		sc, err := render(it.name)
		if err != nil {
			return nil, err
		}
		*it.dst = sc
	}
	return s, nil
}

// MustLoad is like Load but panics on error. Sources are embedded, so a failure
// is a build defect.
func MustLoad(p Params) *Set {
	s, err := Load(p)
	if err != nil {
		panic(err)
	}
	return s
}
