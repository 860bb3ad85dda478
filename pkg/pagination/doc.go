// Package pagination aggregates every page of a Vectra list endpoint into a
// single result.
//
// Vectra list endpoints return the envelope
//
//	{"count": N, "next": "<url with ?page=2>", "previous": null, "results": [...]}
//
// The Paginator follows the page number encoded in each "next" link until
// the link is null, strictly one page after another, and returns
//
//	{"count": len(results), "next": null, "previous": null, "results": [...all items...]}
//
// Example usage:
//
//	p := pagination.New(vectraClient, pagination.DefaultConfig(), logger)
//	all := p.FetchAll(ctx, "detections", url.Values{"state": []string{"active"}})
//
// The paginator:
//   - Drops any caller supplied "page" parameter and starts at page 1
//   - Returns responses without a "results" key unchanged
//   - Stops after Config.MaxPages pages and logs a warning
//   - Stops on a "next" link without a usable page number
//   - Never returns an error: a failed page ends pagination and the items
//     gathered so far are returned
package pagination
