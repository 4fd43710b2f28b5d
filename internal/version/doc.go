// Package version reports which build of asset-sync is running.
package version
