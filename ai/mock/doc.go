// Package mock provides test doubles for the ai interfaces.
// The mocks are deterministic by default and support behavior injection via
// public function fields, plus call counting for assertions.
package mock
