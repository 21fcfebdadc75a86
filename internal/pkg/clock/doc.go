// Package clock provides a tiny time abstraction.
//
// Production code should depend on the Clocker interface instead of calling
// time.Now() or time.NewTicker() directly. This keeps countdowns and expiry
// logic testable: a fake clock can hand out tickers whose channel is driven by
// the test.
package clock
