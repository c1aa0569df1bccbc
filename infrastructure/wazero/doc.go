// Package wazero exports host collector queries to WebAssembly guests.
//
// A guest that holds host values as i64 handles can ask the host about
// them through the functions of the "typeddata_host" module:
//
//	memsize_of(value i64) i64    bytes attributed to the value
//	data_type_id(value i64) i64  identifier of its DataType, 0 if untyped
//	object_id(value i64) i64     stable object id, 0 if not live
//	class_name(value i64) i64    packed ptr+len of the class name
//	gc_start() i64               run a full collection, return freed count
//	gc_compact() i64             compact, return moved count or -1
//
// class_name writes into memory obtained from the guest's "allocate"
// export. The result packs the pointer in the upper 32 bits and the length
// in the lower 32 bits.
//
// # Basic Usage
//
//	r := wazero.NewRuntime(ctx)
//	bridge, err := wazero.RegisterWithRuntime(ctx, r)
//	if err != nil {
//	    return err
//	}
//	guest, err := r.Instantiate(ctx, guestWasm)
//
// Guests must be called on the host runtime's thread.
package wazero
