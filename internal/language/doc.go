// Package language holds the catalogue of spoken-language profiles.
//
// A Profile bundles everything that changes when the user switches language:
// the phone classifier, the ordered pose registry, and the forced-aligner
// invocation parameters. Profiles are values; switching language means
// selecting a different Profile, never editing one in place.
//
// Built-in profiles (English ARPAbet, Mandarin IPA) are embedded YAML tables.
// Additional profiles can be dropped into a profile directory using the same
// schema.
package language
