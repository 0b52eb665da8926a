// Package surfmesh implements an adaptive triangulated surface mesh.
//
// A Mesh owns vertices, edges and triangles addressed by generational
// handles. Triangle soups from STL files or INRIA MESH files are imported,
// classified into patches, curves and model vertices with Classify, and
// remeshed towards a target edge length with AdaptMesh, which combines
// edge splits, collapses, swaps and vertex smoothing. Results are written in
// the legacy Gmsh text format or as STL through package meshio.
package surfmesh
