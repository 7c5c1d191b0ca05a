// Package deps reports which external binaries scribe can find.
package deps
