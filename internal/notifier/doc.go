// Package notifier delivers status and failure messages to the configured chat.
//
// # Transport
//
// The service delegates delivery to a transport.Sender (the Telegram adapter).
// Sends are synchronous: the poll loop is sequential and there is never more
// than one message in flight.
//
// # Failure policy
//
// Delivery is best-effort. A failed send is logged and returned to the caller
// as a value; the caller must not try to report it through the same chat.
//
// # History
//
// For debugging, the service keeps a small in-memory history of recently
// delivered messages.
package notifier
