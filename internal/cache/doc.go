// Package cache stores generated speech clips so repeated phrases do not
// go back to the model API. Clips live in a byte-bounded in-memory LRU (L1)
// in front of a zstd-compressed disk store (L2) that survives restarts.
package cache
