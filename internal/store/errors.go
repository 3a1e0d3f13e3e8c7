package store

import "errors"

var (
	// ErrInvalidTrack is returned when a track lacks a title or artist.
	ErrInvalidTrack = errors.New("track requires title and artist")
	// ErrStoreLocked is returned by OpenWriter when another writer holds the lock.
	ErrStoreLocked = errors.New("store is locked by another writer")
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("not found")
)
