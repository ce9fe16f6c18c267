// Package sim runs a complete device in process and drives it from a simulated host over the
// USB multiplexer. It backs the simulator command and the end-to-end tests.
package sim
