// Package utils holds small helpers shared by the API layer and the
// providers: identifier validation and content hashing.
package utils
