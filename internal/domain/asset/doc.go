// Package asset contains the core domain types of the synchronization pipeline.
//
// It defines the persisted Record of installed tags, the Release resolved from
// upstream, the Platform targets an asset is vendored for, the tag comparison
// policy and the error taxonomy shared by every pipeline stage.
package asset
