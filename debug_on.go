//go:build pooldebug

package nodepool

// Builds tagged pooldebug enable the allocation size validator by default.
const debugEnabled = true
