// Package connectors provides implementations of the Connector interface
// for notice sources. Each connector knows how to list documents from its
// source and, where supported, stream changes as they happen.
package connectors
