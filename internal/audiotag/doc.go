// Package audiotag reads embedded metadata from audio files and hands it to
// the normalizer.
//
// ID3v1/ID3v2, MP4 atoms, FLAC and Ogg Vorbis comments are decoded by
// github.com/dhowden/tag. The reader is a black box to its callers: any
// failure, including a panic inside the decoder, becomes a skip with reason
// unreadable.
package audiotag
