package storage

// Package storage provides the optional check-history layer.
//
// Every completed availability check can be appended here and queried later
// (the digest summarizes them, and -check output can be diffed against the
// last run). The core engine works unchanged when storage is disabled: all
// cache and cooldown state is memory-resident.
