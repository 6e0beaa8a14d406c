// Package ridgemesh extracts ridge and valley lines from a heightmap as a
// half-edge mesh and spreads their directions over every pixel.
//
// # Overview
//
// A heightmap is turned into a divergence field of its surface normals.
// Strongly diverging pixels (ridges) and converging pixels (valleys) are
// thinned to a one-pixel skeleton. Skeleton vertices are connected by
// growing Dijkstra fronts across the walkable part of the field, and the
// resulting graph is built into a half-edge mesh. Tiny faces are collapsed,
// chains are simplified with Ramer-Douglas-Peucker, faces become features,
// and every edge gets an energy and a canonical direction. Finally two
// anisotropic Dijkstra passes carry the edge directions to every pixel.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/ridgemesh"
//	    "github.com/gogpu/ridgemesh/heightmap"
//	)
//
//	hm, err := heightmap.Load("terrain.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := ridgemesh.Execute(hm, ridgemesh.WithHighThreshold(0.3))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(len(res.Mesh.Features), "features")
//
// # Coordinate System
//
// Uses image coordinates:
//   - Origin (0,0) at the top-left pixel
//   - X increases right
//   - Y increases down
//   - Pixel (x, y) is stored at index y*Width+x
//
// # Packages
//
//   - heightmap: the input raster, gradients and image decoding
//   - mesh: the half-edge mesh, face walking, features and validation
//   - flow: per-pixel direction passes, blending and agreement metrics
//   - debugdraw: PNG renderings of the mesh and fields
package ridgemesh
