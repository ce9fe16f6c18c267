package hww

import "github.com/opd-ai/hwwnoise/executor"

// Processor handles decrypted application requests. The reply is encrypted for the host once
// the returned future completes.
type Processor interface {
	Process(request []byte) executor.Future[[]byte]
}

// ProcessorFunc adapts a synchronous handler to Processor.
type ProcessorFunc func(request []byte) []byte

// Process calls f and returns its reply as a completed future.
func (f ProcessorFunc) Process(request []byte) executor.Future[[]byte] {
	return executor.Ready(f(request))
}
