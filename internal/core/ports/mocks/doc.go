// Package mocks provides test doubles for ports interfaces.
//
// These mocks are designed to be simple, thread-safe, in-memory implementations
// suitable for unit testing. Each mock provides:
//
//   - Default behavior that mirrors the real adapter contract
//   - Callback functions (xxxFn) for customizing behavior per test
//   - Helper methods for inspecting recorded calls
//
// # Usage Example
//
//	func TestFilter(t *testing.T) {
//		store := mocks.NewDedupStore()
//		messenger := mocks.NewMessenger()
//
//		f := dedup.New(store, fingerprinter, messenger, logger)
//		// ... exercise and inspect messenger.Deleted()
//	}
//
// # Available Mocks
//
//   - DedupStore: implements ports.DedupStore
//   - Messenger: implements ports.Messenger
//   - Feed: implements ports.Feed
//   - Fingerprinter: implements ports.Fingerprinter
package mocks
