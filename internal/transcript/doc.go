// Package transcript decodes dialogue transcripts in the encodings aligner
// users actually hand us and re-emits them as UTF-8.
//
// Decoding tries UTF-8, GB18030, Big5, then GBK, taking the first encoding
// that decodes the bytes without loss. A legacy decode only counts when
// re-encoding the text reproduces the input exactly.
package transcript
