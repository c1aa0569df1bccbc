package host

import (
	"github.com/reglet-dev/typeddata/errors"
)

type hashEntry struct {
	key     Value
	value   Value
	hash    int64
	deleted bool
}

// hashData is an insertion-ordered table keyed through the "hash" and
// "eql?" methods of its keys.
type hashData struct {
	entries []hashEntry
	index   map[int64][]int
	size    int
}

// NewHash returns an empty Hash.
func (rt *Runtime) NewHash() Value {
	return rt.newHash(rt.builtin.hash)
}

func (rt *Runtime) newHash(class *Class) Value {
	return rt.newObject(class, KindHash, &hashData{index: make(map[int64][]int)}, 64)
}

func (rt *Runtime) hashData(v Value) (*hashData, error) {
	o := rt.object(v)
	if o == nil || o.kind != KindHash {
		return nil, &errors.ConversionError{Actual: rt.Classname(v), Expected: "Hash"}
	}
	return o.payload.(*hashData), nil
}

// KeyHash calls key.hash and returns the result as an int64.
func (rt *Runtime) KeyHash(key Value) (int64, error) {
	h, err := rt.Funcall(key, "hash")
	if err != nil {
		return 0, err
	}
	return rt.ToInt64(h)
}

// KeyEql reports whether a and b are the same hash key.
func (rt *Runtime) KeyEql(a, b Value) (bool, error) {
	if a == b {
		return true, nil
	}
	eq, err := rt.Funcall(a, "eql?", b)
	if err != nil {
		return false, err
	}
	return eq.Truthy(), nil
}

// hashFind returns the entry index for key, or -1.
func (rt *Runtime) hashFind(d *hashData, key Value, hash int64) (int, error) {
	for _, i := range d.index[hash] {
		if d.entries[i].deleted {
			continue
		}
		eq, err := rt.KeyEql(key, d.entries[i].key)
		if err != nil {
			return -1, err
		}
		if eq {
			return i, nil
		}
	}
	return -1, nil
}

// HashAset associates value with key.
func (rt *Runtime) HashAset(h, key, value Value) error {
	d, err := rt.hashData(h)
	if err != nil {
		return err
	}
	if err := rt.checkFrozen(h); err != nil {
		return err
	}
	hash, err := rt.KeyHash(key)
	if err != nil {
		return err
	}
	i, err := rt.hashFind(d, key, hash)
	if err != nil {
		return err
	}
	if i >= 0 {
		d.entries[i].value = value
	} else {
		d.entries = append(d.entries, hashEntry{key: key, value: value, hash: hash})
		d.index[hash] = append(d.index[hash], len(d.entries)-1)
		d.size++
		rt.WriteBarrier(h, key)
	}
	rt.WriteBarrier(h, value)
	return nil
}

// HashLookup returns the value for key and whether it was present.
func (rt *Runtime) HashLookup(h, key Value) (Value, bool, error) {
	d, err := rt.hashData(h)
	if err != nil {
		return 0, false, err
	}
	hash, err := rt.KeyHash(key)
	if err != nil {
		return 0, false, err
	}
	i, err := rt.hashFind(d, key, hash)
	if err != nil || i < 0 {
		return Nil, false, err
	}
	return d.entries[i].value, true, nil
}

// HashAref returns the value for key, or nil.
func (rt *Runtime) HashAref(h, key Value) (Value, error) {
	v, _, err := rt.HashLookup(h, key)
	return v, err
}

// HashDelete removes key and returns its value.
func (rt *Runtime) HashDelete(h, key Value) (Value, bool, error) {
	d, err := rt.hashData(h)
	if err != nil {
		return 0, false, err
	}
	if err := rt.checkFrozen(h); err != nil {
		return 0, false, err
	}
	hash, err := rt.KeyHash(key)
	if err != nil {
		return 0, false, err
	}
	i, err := rt.hashFind(d, key, hash)
	if err != nil || i < 0 {
		return Nil, false, err
	}
	e := &d.entries[i]
	v := e.value
	e.deleted = true
	e.key, e.value = Nil, Nil
	d.size--
	return v, true, nil
}

// HashSize returns the number of entries.
func (rt *Runtime) HashSize(h Value) (int, error) {
	d, err := rt.hashData(h)
	if err != nil {
		return 0, err
	}
	return d.size, nil
}

// HashForEach calls fn for every entry in insertion order until it
// returns false.
func (rt *Runtime) HashForEach(h Value, fn func(key, value Value) bool) error {
	d, err := rt.hashData(h)
	if err != nil {
		return err
	}
	for i := 0; i < len(d.entries); i++ {
		e := d.entries[i]
		if e.deleted {
			continue
		}
		if !fn(e.key, e.value) {
			break
		}
	}
	return nil
}
