/*
Package gateway implements a secret-gated dispatcher that exposes a fixed set of vehicle
commands over a small REST API, intended to be triggered from generic HTTP clients such as iOS
Shortcuts.

Every request carries a shared secret. The gateway validates the secret, resolves the target
vehicle on the account, and forwards exactly one command through the fleet capability. It keeps
no state between requests and performs no retries; failures are surfaced to the caller verbatim.
*/
package gateway
