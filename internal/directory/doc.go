// Package directory walks the automuseums.info directory through the cache:
// homepage → country listing pages → museum pages.
//
// Every tier goes through cache.Store with its own max age. Listing pages are
// fetched as a bounded sequence that ends at the first page without a "next
// page" link. A country's listing cache is judged by the age of its first
// page only; a stale listing is deleted and refetched as a whole.
package directory
