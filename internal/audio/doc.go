// Package audio inspects recorded files. It uses the beep WAV decoder to
// read the sample format and length of each finished track so the real
// recorded duration can be compared with the planned one.
package audio
