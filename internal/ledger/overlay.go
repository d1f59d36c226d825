package ledger

import "solana-blog-pass/internal/address"

// overlay stages writes over a committed map. Values are stored by value, so
// reads return copies and staged writes never leak into base before commit.
type overlay[V any] struct {
	base  map[address.Pubkey]V
	dirty map[address.Pubkey]V
}

func newOverlay[V any](base map[address.Pubkey]V) overlay[V] {
	return overlay[V]{
		base:  base,
		dirty: make(map[address.Pubkey]V),
	}
}

func (o *overlay[V]) get(key address.Pubkey) (V, bool) {
	if v, ok := o.dirty[key]; ok {
		return v, true
	}
	v, ok := o.base[key]
	return v, ok
}

func (o *overlay[V]) put(key address.Pubkey, v V) {
	o.dirty[key] = v
}

func (o *overlay[V]) commit() {
	for k, v := range o.dirty {
		o.base[k] = v
	}
}
