// Package cache implements the filesystem key→content store that backs every
// tier of the scraper (homepage, country listing pages, museum pages).
//
// Each lookup is classified as absent, fresh or stale against a caller
// supplied max age. Age is wall-clock now minus the artifact's modification
// time, or minus a timestamp the caller sampled earlier. The store does no
// locking: one process owns a cache directory at a time.
package cache
