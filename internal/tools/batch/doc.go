// Package batch runs a tool operation over several IDs and reports one result
// per ID, so a single failure does not hide the others.
package batch
