// Package transport streams remote files to disk while reporting progress.
package transport
