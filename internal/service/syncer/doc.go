// Package syncer drives one asset through the sync pipeline:
// check the stored tag against upstream, download every platform build,
// install each one and persist the new tag only when all of them succeeded.
package syncer
