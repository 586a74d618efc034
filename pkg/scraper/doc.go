// Package scraper runs bounded image crawls.
//
// A run takes an ordered list of seed URLs and one image quota shared by
// all of them. Two modes are supported:
//
//   - crawl: breadth-first over same-origin links from each seed. On every
//     page the figures matching extraction.figure_selector are downloaded
//     together with their caption (caption_<i>.txt, "N/A" when absent).
//   - page: every <img> on the seed page itself, no captions, no links.
//
// Records are numbered by quota slot in discovery order, so the output
// directory always holds image_0 .. image_<k-1> without gaps. The run ends
// as soon as the quota is met; later pages and seeds are never fetched.
//
// Failures are values, not aborts. A page that cannot be fetched yields a
// PageFetchError and, by default, ends its seed. An image that cannot be
// fetched or saved yields an ItemFetchError and leaves the quota untouched.
//
// Usage:
//
//	s, err := scraper.New(cfg)
//	if err != nil {
//	    return err
//	}
//	summary, err := s.Run(ctx, []string{"https://en.wikipedia.org/wiki/Go_(programming_language)"})
package scraper
