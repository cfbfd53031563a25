//go:build mage

// Package main provides build targets for the bookshelf project using Mage.
//
// Usage:
//
//	mage build              Compile bookshelf binary to bin/
//	mage test:all           Run all tests (unit + integration)
//	mage test:unit          Run only unit tests (exclude tests/)
//	mage test:short         Run all tests without a mongo server
//	mage test:integration   Run only integration tests (builds first)
//	mage mongo:up           Start a local mongo container on :27017
//	mage mongo:down         Stop and remove the local mongo container
//	mage lint               Run golangci-lint
//	mage clean              Remove build artifacts
//	mage install            Install bookshelf to GOPATH/bin
//	mage stats              Print Go LOC and documentation word counts
//
// Test targets accept go test flags after the target name, for example
// "mage test:integration -run TestTyped".
package main

// Default target when mage runs without arguments.
var Default = Build
