// Package infra contains technical adapters such as geocoding clients,
// capacity backends and decision sinks. These packages should depend
// only on the interfaces defined in the core packages.
package infra
