// Package model provides the shared types used across the folio library.
//
// It defines the geometric primitives ([BBox], rotation handling) and the
// page-level types ([Dimensions], [TOCEntry], [Link]) that the document
// contract is expressed in.
//
// # The transform contract
//
// [Dimensions.Transform] and [TransformBBox] implement the single shared
// rotation+zoom mapping used everywhere a page is viewed at something other
// than its native size. A 90 or 270 degree rotation swaps the axes; zoom
// scales the result. Tile rendering, continuous-scroll layout, and
// dimension-cache backfill all call the same functions, so a tile rendered
// for a page is always exactly the size the layout reserved for it.
package model
