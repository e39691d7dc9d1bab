package passwd

// DB bundles the database file locations so tests can point at
// fixtures instead of the live system files.
type DB struct {
	PasswdPath string
	GroupPath  string
}

func NewDefault() *DB {
	return &DB{PasswdPath: "/etc/passwd", GroupPath: "/etc/group"}
}

func (d *DB) Users() (*File, error) {
	return LoadFile(d.PasswdPath)
}

func (d *DB) Groups() (*GroupFile, error) {
	return LoadGroupFile(d.GroupPath)
}
