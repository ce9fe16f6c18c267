// Package executor provides the cooperative primitives the device runs its request
// processing on.
//
// The device has a single thread and a main loop that must never block. Work that may take
// several loop iterations (waiting for a USB request, waiting for the user to confirm on the
// screen) is expressed as a [Future] and polled once per iteration. There are no wakers and
// no goroutines: a future that is not polled makes no progress.
//
//	f := executor.Then(confirmer.ConfirmPairing(hash), func(ok bool) executor.Future[[]byte] {
//	    return executor.Ready(result(ok))
//	})
//	for {
//	    if out, done := executor.Spin(f); done {
//	        return out
//	    }
//	    // render the screen, drain I/O, ...
//	}
//
// [Slot] is the single-value cell the USB multiplexer uses for its request and response, and
// [WaitFor] suspends until a slot is populated.
package executor
