package passwd

// Package passwd reads the OS password and group databases.
//
// The sync logic only ever reads these files; account mutation goes
// through the usual shadow-suite commands. Parsing tolerates comment
// and malformed lines so a locally edited /etc/passwd does not break
// provisioning.
