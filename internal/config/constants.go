package config

// ManifestFileNames are all recognized manifest file names, probed in order.
var ManifestFileNames = []string{"ember.yaml", "ember.yml"}

// Source kinds accepted in the manifest.
const (
	SourceKindCSV    = "csv"
	SourceKindSQLite = "sqlite"
)

// Field type names accepted in the manifest.
const (
	TypeNameInt    = "int"
	TypeNameFloat  = "float"
	TypeNameString = "string"
	TypeNameBool   = "bool"
	TypeNameTime   = "time"
)
