// Package fswatch turns raw fsnotify notifications into settled file
// events.
//
// Created and Changed are emitted only once a file's size and modification
// time have stopped moving, so a build never starts against a half-written
// file. Deleted is emitted immediately.
package fswatch
