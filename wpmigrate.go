// Package wpmigrate migrates legacy WordPress content into a block-based
// rich-text document model. It converts HTML bodies into ordered blocks,
// resolves embedded media against previously migrated assets, remaps
// internal links onto the new site's paths, and commits the resulting
// documents to a target content store in resumable, idempotent batches.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, http/).
package wpmigrate
