// Package events publishes goal lifecycle notifications.
//
// Every goal mutation produces an Event. With a NATS URL configured events
// go out as JSON on "<prefix>.goal.<type>" subjects; otherwise the Nop
// publisher discards them. Delivery is best effort: publishing never fails
// the mutation that triggered it.
package events
