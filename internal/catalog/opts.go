package catalog

// Opts holds configuration options for database-backed catalogs.
type Opts struct {
	DSN  string // database connection string
	Seed bool   // seed fixture data into an empty catalog
}

// Option defines a configuration option for a database-backed catalog.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithSeed instructs the backend to seed fixture data when the catalog
// tables are empty.
func WithSeed() Option {
	return func(o *Opts) {
		o.Seed = true
	}
}
