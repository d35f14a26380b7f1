package op

import (
	"fmt"
	"sync"
)

// The attribute registry is process-wide: attribute kinds are declared
// while targets and entities initialize, and only read once generation
// begins. A node without an explicit overlay observes the kind's default.

// AttrKey identifies one registered attribute kind and carries its typed
// accessors.
type AttrKey[T any] struct {
	name    string
	def     T
	stamped bool
}

var (
	attrMu         sync.Mutex
	attrKeys       = map[string]any{}
	creationStamps []func(*Node)
)

// RegisterAttr declares a named attribute kind with a default value. The
// registry is append-only: a second registration under the same name
// returns the existing key, and re-registering with a different value type
// is a programming error.
func RegisterAttr[T any](name string, def T) *AttrKey[T] {
	attrMu.Lock()
	defer attrMu.Unlock()
	if existing, ok := attrKeys[name]; ok {
		key, ok := existing.(*AttrKey[T])
		if !ok {
			panic(fmt.Sprintf("op: attribute %q re-registered with a different type", name))
		}
		return key
	}
	key := &AttrKey[T]{name: name, def: def}
	attrKeys[name] = key
	return key
}

func (k *AttrKey[T]) Name() string { return k.name }

// Default returns the value nodes without an explicit overlay observe.
func (k *AttrKey[T]) Default() T { return k.def }

// SetDefault changes the default observed by nodes tagged from now on.
// Only valid during setup, before generation starts.
func (k *AttrKey[T]) SetDefault(v T) { k.def = v }

// StampOnCreate arranges for every node constructed from now on to carry
// this attribute's then-current default as an explicit value, so later
// SetDefault calls cannot change what an existing node reports. Idempotent.
func (k *AttrKey[T]) StampOnCreate() {
	attrMu.Lock()
	defer attrMu.Unlock()
	if k.stamped {
		return
	}
	k.stamped = true
	creationStamps = append(creationStamps, func(n *Node) { k.Set(n, k.def) })
}

func stampCreationAttrs(n *Node) {
	attrMu.Lock()
	stamps := creationStamps
	attrMu.Unlock()
	for _, stamp := range stamps {
		stamp(n)
	}
}

// Get returns the node's value for this attribute, or the default.
func (k *AttrKey[T]) Get(n *Node) T {
	if n.attrs != nil {
		if v, ok := n.attrs[k.name]; ok {
			return v.(T)
		}
	}
	return k.def
}

// Set overlays an explicit per-node value.
func (k *AttrKey[T]) Set(n *Node, v T) {
	if n.attrs == nil {
		n.attrs = map[string]any{}
	}
	n.attrs[k.name] = v
}

// Has reports whether the node carries an explicit value for this
// attribute.
func (k *AttrKey[T]) Has(n *Node) bool {
	if n.attrs == nil {
		return false
	}
	_, ok := n.attrs[k.name]
	return ok
}
