// Package render produces pixel tiles for the pages of a virtual image
// document.
//
// The [Renderer] composes the page source resolver, the header sniffer,
// an external rendering [Engine], and a persistent [TileCache]. A render
// request first checks the cache by [Fingerprint]; on a miss it fetches
// the page bytes, resolves native dimensions (header sniff first, decode
// probe as fallback), decodes through the engine, and applies the
// rotation, zoom, and gamma transform into a freshly allocated buffer.
//
// Every render terminates in either real cached content or a clearly
// marked, never-cached placeholder; no error crosses the render surface.
// Engine handles are strictly scoped to one render call: opened (or
// carried over from the dimension probe), used for one page, and closed
// before RenderPage returns.
package render
