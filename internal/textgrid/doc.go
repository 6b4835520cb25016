// Package textgrid reads Praat TextGrid documents as written by forced
// aligners.
//
// Both the long ("xmin = 0") and short text layouts are accepted, in UTF-8
// or UTF-16 with a byte-order mark. Praat's binary layout is not supported.
package textgrid
