// Package security inspects the TLS certificate of the settlement-price host.
//
// Check is called once before the agent's serve loop starts so an expiring or
// broken certificate on the exchange side shows up in the logs before the
// first scheduled fetch fails.
package security
