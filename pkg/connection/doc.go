// Package connection manages a single CEC adapter connection.
//
// A Connection owns the native driver handle, the dispatch goroutine
// that turns driver callbacks into ordered events, and the bus model.
// All driver callbacks are decoupled from the caller through a bounded
// queue: the driver thread never blocks on application code, and
// handlers never run on the driver thread.
//
// # Usage
//
//	cfg, err := connection.NewBuilder().
//		DeviceName("cec-go").
//		DeviceType(cec.DevicePlaybackDevice).
//		Build()
//	if err != nil { ... }
//
//	conn, err := connection.Open(cfg)
//	if err != nil { ... }
//	defer conn.Close()
//
//	if ok, _ := conn.Poll(cec.AddressTV); ok {
//		status, err := conn.PowerStatus(ctx, cec.AddressTV)
//		...
//	}
//
// Queries need a target the connection has already seen on the bus;
// a successful Poll is the cheapest way to establish that.
//
// Handlers registered on the builder run on the connection's dispatch
// goroutine, one at a time and in bus order. A handler must not wait on
// a query reply: the reply is delivered by the goroutine the handler is
// blocking. Fire-and-forget sends from handlers are safe, and so is
// Close: called from a handler it returns immediately while the
// dispatch goroutine finishes the drain.
package connection
