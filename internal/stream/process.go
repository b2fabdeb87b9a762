// Package stream multiplexes the delivery collections of a script session:
// primary output goes to a bounded queue the consumer pulls from, error,
// warning and information records go to a logger as they arrive.
package stream

import (
	"fmt"

	"github.com/casualjim/scriptbridge/internal/session"
)

// ArgumentTypeError reports a delivery event whose sender is not the
// collection type the handler expects. It always indicates a wiring defect.
type ArgumentTypeError struct {
	Param string
	Want  string
	Got   string
}

func (e *ArgumentTypeError) Error() string {
	return fmt.Sprintf("%s must be of type %s, got %s", e.Param, e.Want, e.Got)
}

// ProcessData reads the item at index from the collection that raised a
// data-added event, passes it to action, then removes it from the collection.
func ProcessData[T any](sender any, index int, action func(T)) error {
	dc, ok := sender.(*session.Collection[T])
	if !ok {
		return &ArgumentTypeError{
			Param: "sender",
			Want:  fmt.Sprintf("%T", (*session.Collection[T])(nil)),
			Got:   fmt.Sprintf("%T", sender),
		}
	}

	item, ok := dc.At(index)
	if !ok {
		return fmt.Errorf("no item at index %d of %T", index, sender)
	}
	action(item)
	dc.RemoveAt(index)
	return nil
}
