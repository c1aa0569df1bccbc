package host

import (
	"fmt"
	"hash/maphash"
	"strings"

	"github.com/reglet-dev/typeddata/errors"
)

type builtinClasses struct {
	basicObject *Class
	object      *Class
	class       *Class
	integer     *Class
	symbol      *Class
	nilClass    *Class
	trueClass   *Class
	falseClass  *Class
	string      *Class
	array       *Class
	hash        *Class
	io          *Class
	file        *Class
	numeric     *Class
	rational    *Class
	binding     *Class
}

var stringSeed = maphash.MakeSeed()

// ObjectClass returns Object.
func (rt *Runtime) ObjectClass() *Class { return rt.builtin.object }

// StringClass returns String.
func (rt *Runtime) StringClass() *Class { return rt.builtin.string }

// IntegerClass returns Integer.
func (rt *Runtime) IntegerClass() *Class { return rt.builtin.integer }

// ArrayClass returns Array.
func (rt *Runtime) ArrayClass() *Class { return rt.builtin.array }

// HashClass returns Hash.
func (rt *Runtime) HashClass() *Class { return rt.builtin.hash }

// FileClass returns File.
func (rt *Runtime) FileClass() *Class { return rt.builtin.file }

// RationalClass returns Rational.
func (rt *Runtime) RationalClass() *Class { return rt.builtin.rational }

// BindingClass returns Binding.
func (rt *Runtime) BindingClass() *Class { return rt.builtin.binding }

func (rt *Runtime) initBuiltins() {
	b := &rt.builtin
	b.basicObject = rt.newClass("BasicObject", nil)
	b.object = rt.newClass("Object", b.basicObject)
	b.class = rt.newClass("Class", b.object)
	for _, c := range []*Class{b.basicObject, b.object, b.class} {
		rt.mustObject(c.value).class = b.class
	}

	b.numeric = rt.newClass("Numeric", b.object)
	b.integer = rt.newClass("Integer", b.numeric)
	b.rational = rt.newClass("Rational", b.numeric)
	b.symbol = rt.newClass("Symbol", b.object)
	b.nilClass = rt.newClass("NilClass", b.object)
	b.trueClass = rt.newClass("TrueClass", b.object)
	b.falseClass = rt.newClass("FalseClass", b.object)
	b.string = rt.newClass("String", b.object)
	b.array = rt.newClass("Array", b.object)
	b.hash = rt.newClass("Hash", b.object)
	b.io = rt.newClass("IO", b.object)
	b.file = rt.newClass("File", b.io)
	b.binding = rt.newClass("Binding", b.object)

	for _, c := range []*Class{b.integer, b.rational, b.symbol, b.nilClass, b.trueClass, b.falseClass, b.binding} {
		c.UndefAlloc()
	}

	rt.main = rt.newObject(b.object, KindObject, nil, 0)
	rt.RegisterMark(rt.main)

	rt.defineObjectMethods()
	rt.defineImmediateMethods()
	rt.defineStringMethods()
	rt.defineCollectionMethods()
	rt.defineFileMethods()
	rt.defineRationalMethods()
	rt.defineBindingMethods()
}

// Inspect returns the result of v.inspect, or a placeholder when it fails.
func (rt *Runtime) Inspect(v Value) string {
	return rt.callString(v, "inspect")
}

// ToS returns the result of v.to_s, or a placeholder when it fails.
func (rt *Runtime) ToS(v Value) string {
	return rt.callString(v, "to_s")
}

func (rt *Runtime) callString(v Value, method string) string {
	if v.IsHeap() && rt.object(v) == nil {
		return fmt.Sprintf("#<T_NONE:%#x>", uint64(v))
	}
	s, err := rt.Funcall(v, method)
	if err != nil {
		return rt.anyToS(v)
	}
	bs, err := rt.StringBytes(s)
	if err != nil {
		return rt.anyToS(v)
	}
	return string(bs)
}

func (rt *Runtime) anyToS(v Value) string {
	return fmt.Sprintf("#<%s:0x%016x>", rt.Classname(v), rt.ObjectID(v))
}

// nameArg accepts a Symbol or String argument as a Go string.
func (rt *Runtime) nameArg(v Value) (string, error) {
	if name, ok := rt.SymbolName(v); ok {
		return name, nil
	}
	if b, err := rt.StringBytes(v); err == nil {
		return string(b), nil
	}
	return "", errors.NewException(errors.ClassTypeError, "%s is not a symbol nor a string", rt.Inspect(v))
}

func (rt *Runtime) stringArg(v Value) ([]byte, error) {
	b, err := rt.StringBytes(v)
	if err != nil {
		return nil, &errors.ConversionError{Actual: rt.Classname(v), Expected: "String"}
	}
	return b, nil
}

func (rt *Runtime) defineObjectMethods() {
	obj := rt.builtin.basicObject
	obj.DefineMethod("hash", 0, func(c *Call) (Value, error) {
		return c.Runtime.Int(int64(c.Runtime.ObjectID(c.Self))), nil
	})
	identity := func(c *Call) (Value, error) {
		return Bool(c.Self == c.Args[0]), nil
	}
	obj.DefineMethod("eql?", 1, identity)
	obj.DefineMethod("==", 1, identity)
	obj.DefineMethod("equal?", 1, identity)
	obj.DefineMethod("to_s", 0, func(c *Call) (Value, error) {
		return c.Runtime.NewString(c.Runtime.anyToS(c.Self)), nil
	})
	obj.DefineMethod("inspect", 0, func(c *Call) (Value, error) {
		return c.Runtime.Funcall(c.Self, "to_s")
	})
	obj.DefineMethod("class", 0, func(c *Call) (Value, error) {
		return c.Runtime.ClassOf(c.Self).Value(), nil
	})
	obj.DefineMethod("object_id", 0, func(c *Call) (Value, error) {
		return c.Runtime.Int(int64(c.Runtime.ObjectID(c.Self))), nil
	})
	obj.DefineMethod("freeze", 0, func(c *Call) (Value, error) {
		return c.Runtime.Freeze(c.Self), nil
	})
	obj.DefineMethod("frozen?", 0, func(c *Call) (Value, error) {
		return Bool(c.Runtime.IsFrozen(c.Self)), nil
	})
	obj.DefineMethod("respond_to?", 1, func(c *Call) (Value, error) {
		name, err := c.Runtime.nameArg(c.Args[0])
		if err != nil {
			return 0, err
		}
		return Bool(c.Runtime.RespondTo(c.Self, name)), nil
	})

	class := rt.builtin.class
	class.DefineMethod("new", -1, func(c *Call) (Value, error) {
		k, _ := c.Runtime.ToClass(c.Self)
		return c.Runtime.New(k, c.Args...)
	})
	className := func(c *Call) (Value, error) {
		k, _ := c.Runtime.ToClass(c.Self)
		return c.Runtime.NewString(k.Name()), nil
	}
	class.DefineMethod("name", 0, className)
	class.DefineMethod("to_s", 0, className)
}

func (rt *Runtime) defineImmediateMethods() {
	b := &rt.builtin

	integerEql := func(c *Call) (Value, error) {
		return Bool(c.Runtime.integerEql(c.Self, c.Args[0])), nil
	}
	b.integer.DefineMethod("eql?", 1, integerEql)
	b.integer.DefineMethod("==", 1, integerEql)
	b.integer.DefineMethod("hash", 0, func(c *Call) (Value, error) {
		x, err := c.Runtime.ToBigInt(c.Self)
		if err != nil {
			return 0, err
		}
		return c.Runtime.Int(int64(maphash.Bytes(stringSeed, x.Bytes())) ^ int64(x.Sign())), nil
	})
	b.integer.DefineMethod("to_s", 0, func(c *Call) (Value, error) {
		x, err := c.Runtime.ToBigInt(c.Self)
		if err != nil {
			return 0, err
		}
		return c.Runtime.NewString(x.String()), nil
	})
	b.integer.DefineMethod("inspect", 0, func(c *Call) (Value, error) {
		return c.Runtime.Funcall(c.Self, "to_s")
	})

	b.symbol.DefineMethod("to_s", 0, func(c *Call) (Value, error) {
		name, _ := c.Runtime.SymbolName(c.Self)
		return c.Runtime.NewString(name), nil
	})
	b.symbol.DefineMethod("inspect", 0, func(c *Call) (Value, error) {
		name, _ := c.Runtime.SymbolName(c.Self)
		return c.Runtime.NewString(":" + name), nil
	})

	literal := func(s, inspect string) (MethodFunc, MethodFunc) {
		return func(c *Call) (Value, error) { return c.Runtime.NewString(s), nil },
			func(c *Call) (Value, error) { return c.Runtime.NewString(inspect), nil }
	}
	toS, inspect := literal("", "nil")
	b.nilClass.DefineMethod("to_s", 0, toS)
	b.nilClass.DefineMethod("inspect", 0, inspect)
	toS, inspect = literal("true", "true")
	b.trueClass.DefineMethod("to_s", 0, toS)
	b.trueClass.DefineMethod("inspect", 0, inspect)
	toS, inspect = literal("false", "false")
	b.falseClass.DefineMethod("to_s", 0, toS)
	b.falseClass.DefineMethod("inspect", 0, inspect)
}

func (rt *Runtime) defineStringMethods() {
	str := rt.builtin.string
	self := func(c *Call) (Value, error) { return c.Self, nil }
	str.DefineMethod("to_s", 0, self)
	str.DefineMethod("to_str", 0, self)
	str.DefineMethod("inspect", 0, func(c *Call) (Value, error) {
		return c.Runtime.NewString(c.Runtime.inspectString(c.Self)), nil
	})
	str.DefineMethod("hash", 0, func(c *Call) (Value, error) {
		bs, err := c.Runtime.StringBytes(c.Self)
		if err != nil {
			return 0, err
		}
		return c.Runtime.Int(int64(maphash.Bytes(stringSeed, bs))), nil
	})
	eql := func(c *Call) (Value, error) {
		return Bool(c.Runtime.stringEql(c.Self, c.Args[0])), nil
	}
	str.DefineMethod("eql?", 1, eql)
	str.DefineMethod("==", 1, eql)
	str.DefineMethod("bytesize", 0, func(c *Call) (Value, error) {
		bs, err := c.Runtime.StringBytes(c.Self)
		if err != nil {
			return 0, err
		}
		return c.Runtime.Int(int64(len(bs))), nil
	})
	str.DefineMethod("encoding", 0, func(c *Call) (Value, error) {
		enc, err := c.Runtime.StringEncoding(c.Self)
		if err != nil {
			return 0, err
		}
		return c.Runtime.NewString(enc), nil
	})
	str.DefineMethod("encode", 1, func(c *Call) (Value, error) {
		enc, err := c.Runtime.nameArg(c.Args[0])
		if err != nil {
			return 0, err
		}
		return c.Runtime.StringEncode(c.Self, enc)
	})
	str.DefineMethod("<<", 1, func(c *Call) (Value, error) {
		bs, err := c.Runtime.stringArg(c.Args[0])
		if err != nil {
			return 0, err
		}
		if err := c.Runtime.StringCat(c.Self, bs); err != nil {
			return 0, err
		}
		return c.Self, nil
	})
}

func (rt *Runtime) defineCollectionMethods() {
	arr := rt.builtin.array
	arr.DefineMethod("size", 0, func(c *Call) (Value, error) {
		n, err := c.Runtime.ArrayLen(c.Self)
		return c.Runtime.Int(int64(n)), err
	})
	arr.DefineMethod("[]", 1, func(c *Call) (Value, error) {
		i, err := c.Runtime.ToInt64(c.Args[0])
		if err != nil {
			return 0, err
		}
		return c.Runtime.ArrayEntry(c.Self, int(i))
	})
	arr.DefineMethod("push", 1, func(c *Call) (Value, error) {
		return c.Self, c.Runtime.ArrayPush(c.Self, c.Args[0])
	})
	arr.DefineMethod("inspect", 0, func(c *Call) (Value, error) {
		vs, err := c.Runtime.ArrayValues(c.Self)
		if err != nil {
			return 0, err
		}
		parts := make([]string, len(vs))
		for i, v := range vs {
			parts[i] = c.Runtime.Inspect(v)
		}
		return c.Runtime.NewString("[" + strings.Join(parts, ", ") + "]"), nil
	})
	arr.DefineMethod("to_s", 0, func(c *Call) (Value, error) {
		return c.Runtime.Funcall(c.Self, "inspect")
	})

	hash := rt.builtin.hash
	hash.DefineMethod("[]", 1, func(c *Call) (Value, error) {
		return c.Runtime.HashAref(c.Self, c.Args[0])
	})
	hash.DefineMethod("[]=", 2, func(c *Call) (Value, error) {
		return c.Args[1], c.Runtime.HashAset(c.Self, c.Args[0], c.Args[1])
	})
	hash.DefineMethod("fetch", 1, func(c *Call) (Value, error) {
		v, ok, err := c.Runtime.HashLookup(c.Self, c.Args[0])
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, errors.NewException(errors.ClassKeyError, "key not found: %s", c.Runtime.Inspect(c.Args[0]))
		}
		return v, nil
	})
	hash.DefineMethod("key?", 1, func(c *Call) (Value, error) {
		_, ok, err := c.Runtime.HashLookup(c.Self, c.Args[0])
		return Bool(ok), err
	})
	hash.DefineMethod("delete", 1, func(c *Call) (Value, error) {
		v, _, err := c.Runtime.HashDelete(c.Self, c.Args[0])
		return v, err
	})
	hash.DefineMethod("size", 0, func(c *Call) (Value, error) {
		n, err := c.Runtime.HashSize(c.Self)
		return c.Runtime.Int(int64(n)), err
	})
	hash.DefineMethod("inspect", 0, func(c *Call) (Value, error) {
		var parts []string
		err := c.Runtime.HashForEach(c.Self, func(k, v Value) bool {
			parts = append(parts, c.Runtime.Inspect(k)+" => "+c.Runtime.Inspect(v))
			return true
		})
		if err != nil {
			return 0, err
		}
		return c.Runtime.NewString("{" + strings.Join(parts, ", ") + "}"), nil
	})
	hash.DefineMethod("to_s", 0, func(c *Call) (Value, error) {
		return c.Runtime.Funcall(c.Self, "inspect")
	})
}

func (rt *Runtime) defineFileMethods() {
	file := rt.builtin.file
	file.DefineMethod("path", 0, func(c *Call) (Value, error) {
		p, err := c.Runtime.FilePath(c.Self)
		if err != nil {
			return 0, err
		}
		return c.Runtime.NewString(p), nil
	})
	file.DefineMethod("read", 0, func(c *Call) (Value, error) {
		b, err := c.Runtime.FileRead(c.Self)
		if err != nil {
			return 0, err
		}
		return c.Runtime.newString(c.Runtime.builtin.string, b, EncodingUTF8), nil
	})
	file.DefineMethod("write", 1, func(c *Call) (Value, error) {
		bs, err := c.Runtime.stringArg(c.Args[0])
		if err != nil {
			return 0, err
		}
		n, err := c.Runtime.FileWrite(c.Self, bs)
		if err != nil {
			return 0, err
		}
		return c.Runtime.Int(int64(n)), nil
	})
	file.DefineMethod("close", 0, func(c *Call) (Value, error) {
		return Nil, c.Runtime.FileClose(c.Self)
	})
	file.DefineMethod("closed?", 0, func(c *Call) (Value, error) {
		closed, err := c.Runtime.FileClosed(c.Self)
		return Bool(closed), err
	})
	file.DefineMethod("inspect", 0, func(c *Call) (Value, error) {
		p, err := c.Runtime.FilePath(c.Self)
		if err != nil {
			return 0, err
		}
		return c.Runtime.NewString("#<File:" + p + ">"), nil
	})
}

func (rt *Runtime) defineRationalMethods() {
	rat := rt.builtin.rational
	rat.DefineMethod("numerator", 0, func(c *Call) (Value, error) {
		return c.Runtime.RationalNumerator(c.Self)
	})
	rat.DefineMethod("denominator", 0, func(c *Call) (Value, error) {
		return c.Runtime.RationalDenominator(c.Self)
	})
	rat.DefineMethod("to_s", 0, func(c *Call) (Value, error) {
		r, err := c.Runtime.RationalValue(c.Self)
		if err != nil {
			return 0, err
		}
		return c.Runtime.NewString(r.Num().String() + "/" + r.Denom().String()), nil
	})
	rat.DefineMethod("inspect", 0, func(c *Call) (Value, error) {
		r, err := c.Runtime.RationalValue(c.Self)
		if err != nil {
			return 0, err
		}
		return c.Runtime.NewString("(" + r.Num().String() + "/" + r.Denom().String() + ")"), nil
	})
	rat.DefineMethod("hash", 0, func(c *Call) (Value, error) {
		r, err := c.Runtime.RationalValue(c.Self)
		if err != nil {
			return 0, err
		}
		return c.Runtime.Int(int64(maphash.String(stringSeed, r.String()))), nil
	})
	eql := func(c *Call) (Value, error) {
		x, err := c.Runtime.RationalValue(c.Self)
		if err != nil {
			return 0, err
		}
		y, err := c.Runtime.RationalValue(c.Args[0])
		if err != nil {
			return False, nil
		}
		return Bool(x.Cmp(y) == 0), nil
	}
	rat.DefineMethod("eql?", 1, eql)
	rat.DefineMethod("==", 1, eql)
}

func (rt *Runtime) defineBindingMethods() {
	bnd := rt.builtin.binding
	bnd.DefineMethod("eval", 1, func(c *Call) (Value, error) {
		src, err := c.Runtime.stringArg(c.Args[0])
		if err != nil {
			return 0, err
		}
		return c.Runtime.BindingEval(c.Self, string(src))
	})
	bnd.DefineMethod("local_variable_get", 1, func(c *Call) (Value, error) {
		name, err := c.Runtime.nameArg(c.Args[0])
		if err != nil {
			return 0, err
		}
		return c.Runtime.BindingLocalGet(c.Self, name)
	})
	bnd.DefineMethod("local_variable_set", 2, func(c *Call) (Value, error) {
		name, err := c.Runtime.nameArg(c.Args[0])
		if err != nil {
			return 0, err
		}
		return c.Args[1], c.Runtime.BindingLocalSet(c.Self, name, c.Args[1])
	})
	bnd.DefineMethod("local_variable_defined?", 1, func(c *Call) (Value, error) {
		name, err := c.Runtime.nameArg(c.Args[0])
		if err != nil {
			return 0, err
		}
		return Bool(c.Runtime.BindingLocalDefined(c.Self, name)), nil
	})
	bnd.DefineMethod("local_variables", 0, func(c *Call) (Value, error) {
		names, err := c.Runtime.BindingLocals(c.Self)
		if err != nil {
			return 0, err
		}
		a := c.Runtime.NewArray()
		for _, name := range names {
			if err := c.Runtime.ArrayPush(a, c.Runtime.Intern(name)); err != nil {
				return 0, err
			}
		}
		return a, nil
	})
	bnd.DefineMethod("receiver", 0, func(c *Call) (Value, error) {
		return c.Runtime.BindingReceiver(c.Self)
	})
	bnd.DefineMethod("inspect", 0, func(c *Call) (Value, error) {
		return c.Runtime.NewString(fmt.Sprintf("#<Binding:0x%016x>", c.Runtime.ObjectID(c.Self))), nil
	})
}
