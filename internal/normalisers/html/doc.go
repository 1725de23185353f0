// Package html provides a Normaliser for HTML notices saved by the
// notice-board scrapers. It keeps the readable text, one block per line,
// so sentence and line boundaries survive for the chunker.
package html
