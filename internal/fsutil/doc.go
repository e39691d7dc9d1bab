package fsutil

// Package fsutil provides safe write helpers for system files the
// provisioning code touches (authorized_keys, feature config files).
//
// Writes go through a temp file in the target directory followed by a
// rename, with an in-place rewrite fallback for bind-mounted targets.
