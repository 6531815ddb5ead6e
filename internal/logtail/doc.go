// Package logtail reads the end of walletlink's log file for display in the
// UI.
//
// Read keeps a ring buffer of maxLines entries, so memory stays bounded no
// matter how large the file grows. Lines are returned oldest first.
//
//	lines, err := logtail.Read(cfg.LogFile, 200, "")
//	lines, err := logtail.Read(cfg.LogFile, 50, "3f2a9c1e") // one request
package logtail
