// Package staging manages the per-run aligner workspaces under paths.staging_dir.
//
// Each generate run gets run-<id>/{input,output}; the workflow always removes
// it when the run ends. CleanStale and CleanOrphaned reclaim directories left
// behind by crashed runs.
package staging
