// Package balancer implements the load balancer that fronts the document
// servers. It owns every server and the hash ring they are placed on,
// routes requests to the responsible replica, and migrates documents when
// servers join or leave.
//
// A server's pending edits are always applied before the balancer inspects
// its store, so migration decisions see post-edit state.
package balancer
