// Package binding associates visible field slots with keys of a cached
// record.
//
// The cache is replaced wholesale by Load (initial and explicit reloads,
// which also re-render slots) and by ReplaceCache (patch responses, which
// do not). Dirty detection on Blur compares the normalized slot text with
// the cached value under strict equality, so a numeric cached value is
// always considered dirty.
package binding
