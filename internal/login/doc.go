package login

// Package login synchronizes configured system login users with the
// OS account database.
//
// The configuration daemon owns the desired state (system login user
// ...); this package reads it, diffs it against the running view and
// the OS password database, and applies the result through the
// shadow-suite commands. It never edits /etc/passwd or /etc/shadow
// itself.
