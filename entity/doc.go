// Package entity provides the structured value model shared by script inputs,
// script variables and converted script output.
//
// A Value is an immutable tagged variant. It is one of:
//
//   - a primitive: null, string, int, double, bool, date-time or enum label
//   - a record: an Entity, i.e. an ordered set of uniquely named fields
//   - a list: an ordered sequence of values
//
// Records and lists nest arbitrarily.
//
// Design decisions:
//   - Immutability: constructors copy their inputs and accessors return copies, so a
//     Value can be shared across goroutines without synchronization
//   - Field order: Entity keeps insertion order, both for iteration and for JSON
//   - Single values: a record holding exactly one field under PrimitiveKey stands for a
//     bare scalar or list with no named fields
//
// Example usage:
//
//	e := entity.New(
//	    entity.F("prop1", entity.Int(1)),
//	    entity.F("prop2", entity.String("two")),
//	)
//	fmt.Println(e) // ('prop1': 1 'prop2': "two")
//
//	v, ok := e.Get("prop2")
//	s, _ := v.AsString()
package entity
