// Package util provides small generic helpers shared by the workflow core
//
// It holds a set type and a state transition table used to describe node
// lifecycles
package util
