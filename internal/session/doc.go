// Package session owns the monitor's mutable state: the selected device,
// the live reading and the history window.
//
// All mutation runs on one event-loop goroutine. Pollers fetch on their own
// goroutines and post results back to the loop, tagged with the generation
// of the device selection they were fetched for; results from an older
// generation are discarded. Readers see immutable State values.
package session
