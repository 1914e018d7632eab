// Package types defines the entity records exchanged with the CapriSystem
// REST API, the authentication payloads, the storage configuration and the
// standard errors shared by the client packages.
package types
