package tagcache

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// A sweep pass finished. removed is the number of evicted entries.
	SweepCompleted(removed int, took time.Duration)

	// A sweep pass failed. The sweeper keeps running.
	SweepFailed(err error)

	// InvalidateTags finished; tags is the number of tags requested.
	TagsInvalidated(tags int, removed int)

	// A typed read found an undecodable value and removed it.
	// reason ∈ {"corrupt", "codec_mismatch", "value_decode"}
	SelfHeal(key, reason string)

	// Establishing the store connection failed.
	ConnectFailed(err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SweepCompleted(int, time.Duration) {}
func (NopHooks) SweepFailed(error)                 {}
func (NopHooks) TagsInvalidated(int, int)          {}
func (NopHooks) SelfHeal(string, string)           {}
func (NopHooks) ConnectFailed(error)               {}
