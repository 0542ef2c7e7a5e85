// Package cache provides a two-level store for generated lessons. An
// in-memory LRU cache (L1) sits in front of a persistent compressed disk
// cache (L2) with TTL cleanup, and a small progress store remembers the
// last playback position per lesson.
package cache
