// Package content encodes in-memory objects into lazily produced request
// bodies for the application/x-www-form-urlencoded and multipart/form-data
// media types.
//
// # Encoding Model
//
// An object is first flattened into an ordered list of fields. Each field is
// taken from the front of a work queue and handed to a Filter chosen by the
// kind of its value. A filter either returns the pair to encode, suppresses
// it, or pushes further pairs back onto the queue. The default array filter
// uses that last ability to expand a slice into repeated keys:
//
//	c, _ := content.Form(content.Fields{
//	    {Key: "a", Value: 1},
//	    {Key: "items", Value: []int{3, 2, 1}},
//	})
//	// a=1&items=3&items=2&items=1
//
// Nested maps and structs have no standard form representation, so the
// default object filter always fails with ErrNestedStructure. Supply a
// custom filter to flatten them:
//
//	c, _ := content.Form(order, content.WithFilter(content.KindObject,
//	    func(f content.Field, q *content.Queue) (content.Field, bool, error) {
//	        b, err := json.Marshal(f.Value)
//	        return content.Field{Key: f.Key, Value: string(b)}, true, err
//	    }),
//	)
//
// # Lazy Production
//
// Nothing is encoded until the body is read. A Content can be opened any
// number of times; each Stream replays the same fields (and, for multipart,
// the same boundary) from the start, so a body can be re-sent when a request
// is redirected. Encoding errors are returned by the Stream when the
// offending field is reached.
package content
