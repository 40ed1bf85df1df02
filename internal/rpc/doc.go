// Package rpc exposes a load balancer as a gRPC service.
//
// Messages are google.protobuf.Struct values, so the service needs no
// generated code: the service descriptor is declared by hand and both sides
// convert between Struct fields and the message package types.
package rpc
