// Package registry tracks live subscriber connections and fans workflow
// events out to them
package registry
