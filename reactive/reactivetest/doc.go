// Package reactivetest provides test doubles for the reactive package: a
// virtual-time Scheduler and a Subscriber that records signals and lets the
// test drive demand by hand.
package reactivetest
