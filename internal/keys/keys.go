// Package keys maps logical cache keys and tag names to physical store keys.
//
// Layout under an optional instance prefix:
//
//	<prefix><key>        - entry hash
//	<prefix><key>:tags   - set of tag keys owning the entry
//	<prefix>tag:<name>   - set of entry keys owned by the tag
//	<prefix>expires-at   - sorted set, entry key -> expiration (unix ms)
//
// Logical keys that could be mistaken for one of the structural forms are
// wrapped in "~" on both sides, which keeps the mapping injective.
package keys

import "strings"

const (
	// TagsSuffix is appended to an entry key to name its key-tags set.
	// Scripts derive the same name server-side, so both must agree.
	TagsSuffix = ":tags"

	tagPrefix = "tag:"
	indexName = "expires-at"
	escape    = "~"
)

// Codec is a pure, allocation-light key mapper. The zero value maps without a prefix.
type Codec struct {
	prefix string
}

// New returns a Codec namespaced by instance. An empty instance means no prefix.
func New(instance string) Codec {
	if instance == "" {
		return Codec{}
	}
	return Codec{prefix: instance + ":"}
}

// Prefix returns the physical prefix shared by every key of this codec.
func (c Codec) Prefix() string { return c.prefix }

// Entry returns the physical entry key for a logical key.
func (c Codec) Entry(key string) string {
	if needsEscape(key) {
		return c.prefix + escape + key + escape
	}
	return c.prefix + key
}

// KeyTags returns the physical key-tags set of a logical key.
func (c Codec) KeyTags(key string) string { return c.Entry(key) + TagsSuffix }

// Tag returns the physical membership set of a tag.
func (c Codec) Tag(name string) string { return c.prefix + tagPrefix + name }

// Tags maps every tag name to its membership set key, preserving order.
func (c Codec) Tags(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = c.Tag(n)
	}
	return out
}

// Index returns the global expiration index key.
func (c Codec) Index() string { return c.prefix + indexName }

// Logical reverses Entry. ok is false when physical does not belong to this codec
// or is not an entry key.
func (c Codec) Logical(physical string) (key string, ok bool) {
	rest, found := strings.CutPrefix(physical, c.prefix)
	if !found || rest == indexName || strings.HasPrefix(rest, tagPrefix) || strings.HasSuffix(rest, TagsSuffix) {
		return "", false
	}
	if strings.HasPrefix(rest, escape) {
		if len(rest) < 2*len(escape) || !strings.HasSuffix(rest, escape) {
			return "", false
		}
		return rest[len(escape) : len(rest)-len(escape)], true
	}
	return rest, true
}

func needsEscape(key string) bool {
	return key == "" ||
		key == indexName ||
		strings.HasPrefix(key, escape) ||
		strings.HasPrefix(key, tagPrefix) ||
		strings.HasSuffix(key, TagsSuffix)
}
