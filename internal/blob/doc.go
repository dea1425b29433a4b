// Package blob stores uploaded case documents and maps them to public URLs.
package blob
