// Package ring implements the consistent hashing ring. Members are kept in
// insertion order and each contributes one or more replica hashes; lookups
// scan every replica, so no sorted index has to be maintained as members
// join and leave.
package ring
