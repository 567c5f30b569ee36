// Package tools invokes the external tool executor service
package tools
