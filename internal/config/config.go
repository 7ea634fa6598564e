// Package config resolves the CLI surface named in §6, merging flags,
// environment variables, an optional YAML config file and built-in
// defaults with CLI taking precedence over env over file over default,
// the way the teacher's cmd/mssqldef.parseOptions merges a flag value
// with its $MSSQL_PWD environment fallback, generalized to every flag.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// Flags holds the raw go-flags parse result. Every field is left at its Go
// zero value when not passed on the command line, which this package
// treats as "unset" for precedence purposes — the same convention
// go-flags structs use when no `default:` tag is present.
type Flags struct {
	XSD               string `short:"x" long:"xsd" description:"Path to the XSD schema file" value-name:"path"`
	Out               string `long:"out" description:"Directory for generated DDL and persisted state" value-name:"dir"`
	Schema            string `long:"schema" description:"Target SQL Server schema name" value-name:"name"`
	XML               string `long:"xml" description:"Example XML file to ingest for a one-shot run" value-name:"path"`
	ImportDir         string `long:"import-dir" description:"Directory of XML files to watch/ingest" value-name:"dir"`
	Connection        string `long:"connection" description:"SQL Server connection string" value-name:"dsn"`
	RemoteSourceDir   string `long:"remote-source-dir" description:"Remote directory mirrored into import-dir" value-name:"dir"`
	RemotePollSeconds string `long:"remote-poll-seconds" description:"Seconds between remote polls (min 30)" value-name:"n"`
	RemoteHistoryFile string `long:"remote-history-file" description:"Path to the remote-copy history file" value-name:"path"`
	Watch             bool   `long:"watch" description:"Ingest and poll the remote source until canceled"`
	VerboseImport     bool   `long:"verbose-import" description:"Pretty-print each import decision to stdout"`
	Audit             bool   `long:"audit" description:"Write import_audit.csv"`
	DebounceMs        string `long:"debounce-ms" description:"Watcher debounce window in ms" value-name:"n"`
	ReadyWaitMs       string `long:"ready-wait-ms" description:"File-ready gate timeout in ms" value-name:"n"`
	NoIdempotency     bool   `long:"no-idempotency" description:"Disable idempotency probing on import"`
	PasswordPrompt    bool   `long:"connection-password-prompt" description:"Prompt for a password and append it to the connection string"`
	ApplyDrop         bool   `long:"apply-drop" description:"Execute schema.drop.sql against --connection instead of only writing it"`
	ApplyClear        bool   `long:"apply-clear" description:"Execute schema.clear.sql against --connection instead of only writing it"`
	ConfigFile        string `long:"config" description:"Path to a YAML config file" value-name:"path"`
}

// FileConfig is the shape of an optional YAML config file, field names
// matching Flags' but in YAML's conventional lower-case.
type FileConfig struct {
	XSD               string `yaml:"xsd"`
	Out               string `yaml:"out"`
	Schema            string `yaml:"schema"`
	XML               string `yaml:"xml"`
	ImportDir         string `yaml:"importDir"`
	Connection        string `yaml:"connection"`
	RemoteSourceDir   string `yaml:"remoteSourceDir"`
	RemotePollSeconds string `yaml:"remotePollSeconds"`
	RemoteHistoryFile string `yaml:"remoteHistoryFile"`
	Watch             bool   `yaml:"watch"`
	VerboseImport     bool   `yaml:"verboseImport"`
	Audit             bool   `yaml:"audit"`
	DebounceMs        string `yaml:"debounceMs"`
	ReadyWaitMs       string `yaml:"readyWaitMs"`
	NoIdempotency     bool   `yaml:"noIdempotency"`
	ApplyDrop         bool   `yaml:"applyDrop"`
	ApplyClear        bool   `yaml:"applyClear"`
}

// Config is the fully resolved, typed configuration every binary builds
// from a Flags value.
type Config struct {
	XSD               string
	Out               string
	Schema            string
	XML               string
	ImportDir         string
	Connection        string
	RemoteSourceDir   string
	RemotePollSeconds int
	RemoteHistoryFile string
	Watch             bool
	VerboseImport     bool
	Audit             bool
	DebounceMs        int
	ReadyWaitMs       int
	NoIdempotency     bool
	ApplyDrop         bool
	ApplyClear        bool
}

func defaults() Config {
	return Config{
		Schema:            "xsd",
		Out:               "out",
		ImportDir:         "in",
		RemotePollSeconds: 60,
		RemoteHistoryFile: "remote_copied_files.txt",
		DebounceMs:        200,
		ReadyWaitMs:       2000,
	}
}

// envName upper-cases and prefixes a flag's long name for its environment
// fallback, per §6's "Environment fallbacks mirror each flag."
func envName(long string) string {
	out := make([]byte, 0, len(long)+4)
	out = append(out, "XSDIMPORT_"...)
	for _, r := range long {
		if r == '-' {
			out = append(out, '_')
			continue
		}
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		out = append(out, byte(r))
	}
	return string(out)
}

func envString(long string) (string, bool) {
	return os.LookupEnv(envName(long))
}

func envBool(long string) bool {
	v, ok := os.LookupEnv(envName(long))
	return ok && v != "" && v != "0" && v != "false"
}

func pick(flagVal string, long string, fileVal string, def string) string {
	if flagVal != "" {
		return flagVal
	}
	if v, ok := envString(long); ok && v != "" {
		return v
	}
	if fileVal != "" {
		return fileVal
	}
	return def
}

func pickBool(flagVal bool, long string, fileVal bool) bool {
	return flagVal || envBool(long) || fileVal
}

func pickInt(flagVal string, long string, fileVal string, def int) (int, error) {
	s := pick(flagVal, long, fileVal, "")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", long, err)
	}
	return n, nil
}

// Resolve merges Flags over environment over an optional config file over
// defaults into a typed Config.
func Resolve(f Flags) (Config, error) {
	var file FileConfig
	if f.ConfigFile != "" {
		b, err := os.ReadFile(f.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", f.ConfigFile, err)
		}
		if err := yaml.Unmarshal(b, &file); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", f.ConfigFile, err)
		}
	}

	d := defaults()
	c := Config{
		XSD:               pick(f.XSD, "xsd", file.XSD, d.XSD),
		Out:               pick(f.Out, "out", file.Out, d.Out),
		Schema:            pick(f.Schema, "schema", file.Schema, d.Schema),
		XML:               pick(f.XML, "xml", file.XML, d.XML),
		ImportDir:         pick(f.ImportDir, "import-dir", file.ImportDir, d.ImportDir),
		Connection:        pick(f.Connection, "connection", file.Connection, d.Connection),
		RemoteSourceDir:   pick(f.RemoteSourceDir, "remote-source-dir", file.RemoteSourceDir, d.RemoteSourceDir),
		RemoteHistoryFile: pick(f.RemoteHistoryFile, "remote-history-file", file.RemoteHistoryFile, d.RemoteHistoryFile),
		Watch:             pickBool(f.Watch, "watch", file.Watch),
		VerboseImport:     pickBool(f.VerboseImport, "verbose-import", file.VerboseImport),
		Audit:             pickBool(f.Audit, "audit", file.Audit),
		NoIdempotency:     pickBool(f.NoIdempotency, "no-idempotency", file.NoIdempotency),
		ApplyDrop:         pickBool(f.ApplyDrop, "apply-drop", file.ApplyDrop),
		ApplyClear:        pickBool(f.ApplyClear, "apply-clear", file.ApplyClear),
	}

	var err error
	if c.RemotePollSeconds, err = pickInt(f.RemotePollSeconds, "remote-poll-seconds", file.RemotePollSeconds, d.RemotePollSeconds); err != nil {
		return Config{}, err
	}
	if c.RemotePollSeconds < 30 {
		c.RemotePollSeconds = 30
	}
	if c.DebounceMs, err = pickInt(f.DebounceMs, "debounce-ms", file.DebounceMs, d.DebounceMs); err != nil {
		return Config{}, err
	}
	if c.ReadyWaitMs, err = pickInt(f.ReadyWaitMs, "ready-wait-ms", file.ReadyWaitMs, d.ReadyWaitMs); err != nil {
		return Config{}, err
	}

	return c, nil
}

// WithPassword appends a password to a connection string that omitted one,
// for the --connection-password-prompt flow. It handles both forms
// go-mssqldb accepts: a "sqlserver://" URL, where the password joins the
// userinfo, and an ADO-style "key=value;..." string, where it is appended
// as another "password=" pair.
func WithPassword(connection, password string) string {
	if u, err := url.Parse(connection); err == nil && strings.HasPrefix(strings.ToLower(connection), "sqlserver://") {
		user := ""
		if u.User != nil {
			user = u.User.Username()
		}
		u.User = url.UserPassword(user, password)
		return u.String()
	}
	trimmed := strings.TrimRight(connection, "; ")
	return trimmed + ";password=" + password
}
