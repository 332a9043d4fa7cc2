// Package state persists per-document build state used for incremental
// rebuilds.
//
// A Record remembers the content fingerprint a document had when its output
// was last written. The site builder skips a document whose fingerprint is
// unchanged and whose output still exists.
package state
