//go:build !pooldebug

package nodepool

// In normal builds the allocation size validator is composed out entirely.
const debugEnabled = false
