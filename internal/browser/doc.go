// Package browser provides the page-fetching sessions used by the crawl.
//
// A Session behaves like a single browser tab: Fetch navigates, and the
// remaining methods inspect whatever page is current. Two implementations
// exist:
//
//   - HTTPSession fetches pages with net/http and answers element lookups
//     from the fetched HTML. It cannot render, so CaptureSnapshot returns
//     ErrSnapshotUnsupported.
//   - ChromeSession drives a headless Chrome through chromedp and can
//     capture screenshots of the rendered page.
//
// Sessions are not safe for concurrent use.
package browser
