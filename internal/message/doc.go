// Package message defines the request and response values exchanged between
// callers, the load balancer and servers, together with replica label math.
package message
