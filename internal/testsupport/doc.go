// Package testsupport provides shared fixtures for tests: temp-dir configs
// and pre-opened stores with registered cleanup.
package testsupport
