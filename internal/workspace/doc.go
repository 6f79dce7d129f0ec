// Package workspace holds the filesystem collaborators of a build: resetting
// the output directory and mirroring static assets from source to output.
package workspace
