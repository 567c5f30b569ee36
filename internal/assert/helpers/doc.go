// Package helpers provides fakes and environments for package tests
package helpers
