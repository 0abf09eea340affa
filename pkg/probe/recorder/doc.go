// Package recorder provides asynchronous persistence of probe results.
//
// The recorder sits between the scheduler and the storage backend. Results
// are enqueued on a buffered channel and written by a background worker, so
// a slow or briefly unavailable storage backend never delays the probe
// schedule. When the buffer stays full past the write timeout the result is
// dropped and the caller gets a RecorderError; probing continues.
//
// Close drains the channel before returning, so results recorded shortly
// before shutdown still reach storage.
package recorder
