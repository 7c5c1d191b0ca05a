// Package audio decodes uploaded recordings into mono 16 kHz 16-bit PCM.
//
// WAV, FLAC, MP3 and Ogg Vorbis are decoded in-process with gopxl/beep.
// Everything else (m4a, webm, opus, ...) and any native decode failure is
// handed to ffmpeg. The container is always detected from content, never from
// the filename.
package audio
