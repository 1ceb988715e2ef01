package api

// Config is the full configuration of an extraction run.
// It is loaded from YAML (see internal/config) and can be overridden by CLI flags.
type Config struct {
	// Extensions lists the file extensions to scan (with leading dot).
	Extensions []string `yaml:"extensions" json:"extensions"`
	// Hosts overrides the host-language style per extension, e.g. ".kt": "java".
	// Valid styles are "java", "javascript", "python" and "none".
	Hosts map[string]string `yaml:"hosts,omitempty" json:"hosts,omitempty"`
	// Include and Exclude are glob patterns matched against slash-separated
	// paths relative to the scan root.
	Include []string `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	// GitOnly restricts discovery to files tracked by git.
	GitOnly bool `yaml:"git_only" json:"git_only"`

	// OutputDir receives one file per extracted query.
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	// OutputExt is the extension of generated files.
	OutputExt string `yaml:"output_ext" json:"output_ext"`

	// Dialect is handed to the pretty-printer untouched.
	Dialect Dialect `yaml:"dialect" json:"dialect"`

	// Dedupe drops records whose function and cleaned query were already seen.
	Dedupe bool `yaml:"dedupe" json:"dedupe"`
	// Workers bounds parallel per-file extraction. Persistence stays sequential.
	Workers int `yaml:"workers" json:"workers"`
	// IndexPath, when set, catalogs every written query in a SQLite file.
	IndexPath string `yaml:"index_path,omitempty" json:"index_path,omitempty"`
	// Check enables SQL syntax diagnostics for written queries.
	Check bool `yaml:"check" json:"check"`
}

// Dialect controls the layout of formatted queries.
type Dialect struct {
	// Language is the SQL dialect name (sql, mysql, postgresql, ...).
	Language string `yaml:"language" json:"language"`
	// TabWidth is the number of spaces per indentation level.
	TabWidth int `yaml:"tab_width" json:"tab_width"`
	// LinesBetweenQueries is the number of blank lines between statements.
	LinesBetweenQueries int `yaml:"lines_between_queries" json:"lines_between_queries"`
}
