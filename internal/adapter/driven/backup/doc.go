// Package backup reads and writes the vault backup file.
//
// A backup is a YAML sequence of groups, each with a name, an optional url
// and an ordered list of entries (label and secret):
//
//	- name: Work
//	  url: https://example.com
//	  entries:
//	    - label: GitHub
//	      secret: JBSWY3DPEHPK3PXP
//	...
//
// The closing "..." marks the end of the document. A file that does not end
// with it was cut short and is rejected, as is a second document or a secret
// that is not valid base32.
//
// Identifiers and icons are runtime state and never appear in a backup.
// Files are written to a temporary file in the destination directory and
// renamed into place, so a failed export never leaves a partial file.
package backup
