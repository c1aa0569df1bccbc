// Package typeddata lets Go values live inside host objects.
//
// A Go type describes itself to the host collector with a DataType, built
// once per type with a Builder:
//
//	type Point struct{ X, Y int }
//
//	var pointType = typeddata.Define[Point]("Point",
//		typeddata.NewBuilder[Point]("point").FreeImmediately())
//
// Define also registers the host class used for the type, so values can be
// moved into the host and checked on the way back:
//
//	v := typeddata.IntoValue(Point{1, 2})
//	p, err := typeddata.GetRef[Point](v)
//
// Types that hold host values implement Marker so the collector keeps those
// values alive, and Compactor when they mark them movable. Types that own
// resources implement Freer. Callbacks run inside the collector and must not
// panic; a panic terminates the process.
//
// Every function that touches host values must run on the thread the
// runtime was embedded on.
package typeddata
