// Package memory provides in-memory implementations of the storage ports.
// Every type is safe for concurrent use.
package memory
