// Package versions implements persistence for the installed-tag record.
//
// The FileRepository stores the record as an indented JSON object on disk and
// replaces it atomically on every save, so a torn write is never read back.
package versions
