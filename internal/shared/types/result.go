package types

import "time"

// Subject tags the operation family an envelope belongs to
type Subject string

const (
	SubjectFile    Subject = "file"
	SubjectFolder  Subject = "folder"
	SubjectArchive Subject = "archive"
	SubjectVersion Subject = "version"
	SubjectSync    Subject = "sync"
	SubjectSearch  Subject = "search"
	SubjectFormat  Subject = "format"
	SubjectService Subject = "service"
)

// ErrorKind classifies a failed operation
type ErrorKind string

const (
	ErrorEscape          ErrorKind = "escape"
	ErrorIO              ErrorKind = "io"
	ErrorNotFound        ErrorKind = "not_found"
	ErrorArchiveFormat   ErrorKind = "archive_format"
	ErrorUnsafeMember    ErrorKind = "unsafe_member"
	ErrorVersionRange    ErrorKind = "version_range"
	ErrorVersionMissing  ErrorKind = "version_missing"
	ErrorSymlink         ErrorKind = "symlink_refused"
	ErrorInvalidArgument ErrorKind = "invalid_argument"
	ErrorUnknownTool     ErrorKind = "unknown_tool"
	ErrorCanceled        ErrorKind = "canceled"
)

// Payload is the typed body of a successful (or partially successful) result
type Payload interface {
	Family() Subject
}

// Result is the envelope returned by every tool invocation.
// OK=false always carries Error and ErrorKind.
type Result struct {
	OK        bool       `json:"ok"`
	Action    string     `json:"action"`
	Subject   Subject    `json:"subject_type"`
	ErrorKind ErrorKind  `json:"error_kind,omitempty"`
	Error     string     `json:"error,omitempty"`
	Message   string     `json:"message,omitempty"`
	Payload   Payload    `json:"payload,omitempty"`
	Items     []*Result  `json:"items,omitempty"`
	Debug     *DebugInfo `json:"debug_info,omitempty"`
}

// DebugInfo discloses physical layout; attached only in debug mode
type DebugInfo struct {
	ActualPath               string `json:"actual_path,omitempty"`
	DisplayPath              string `json:"display_path,omitempty"`
	IsSpoofed                bool   `json:"is_spoofed"`
	SpoofDirectoryRoot       string `json:"spoof_directory_root,omitempty"`
	RootRestrictionDirectory string `json:"root_restriction_directory"`
}

// Succeed builds a successful envelope
func Succeed(action string, subject Subject, payload Payload) *Result {
	return &Result{OK: true, Action: action, Subject: subject, Payload: payload}
}

// Fail builds a failed envelope
func Fail(action string, subject Subject, kind ErrorKind, msg string) *Result {
	if kind == "" {
		kind = ErrorIO
	}
	return &Result{OK: false, Action: action, Subject: subject, ErrorKind: kind, Error: msg}
}

// WithMessage sets a human-readable summary
func (r *Result) WithMessage(msg string) *Result {
	r.Message = msg
	return r
}

// WithPayload attaches structured context, also used on failures
func (r *Result) WithPayload(p Payload) *Result {
	r.Payload = p
	return r
}

// FileInfo describes one file system entry
type FileInfo struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Type        string     `json:"type"`
	Size        int64      `json:"size"`
	SizeHuman   string     `json:"size_human,omitempty"`
	Mode        string     `json:"mode,omitempty"`
	Permissions string     `json:"permissions,omitempty"`
	Modified    time.Time  `json:"modified"`
	Created     *time.Time `json:"created,omitempty"`
	Accessed    *time.Time `json:"accessed,omitempty"`
	Extension   string     `json:"extension,omitempty"`
	MimeType    string     `json:"mime_type,omitempty"`
	IsBinary    *bool      `json:"is_binary,omitempty"`
	Checksum    string     `json:"checksum,omitempty"`
	Algorithm   string     `json:"checksum_algorithm,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// FileOp is the payload for single-file operations
type FileOp struct {
	Path        string    `json:"path,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Content     string    `json:"content,omitempty"`
	Encoding    string    `json:"encoding,omitempty"`
	Charset     string    `json:"charset,omitempty"`
	MimeType    string    `json:"mime_type,omitempty"`
	IsBinary    bool      `json:"is_binary,omitempty"`
	Size        int64     `json:"size,omitempty"`
	Exists      *bool     `json:"exists,omitempty"`
	IsFile      *bool     `json:"is_file,omitempty"`
	IsDirectory *bool     `json:"is_directory,omitempty"`
	Info        *FileInfo `json:"info,omitempty"`
}

func (*FileOp) Family() Subject { return SubjectFile }

// Rename records one successful batch rename
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FolderOp is the payload for directory operations
type FolderOp struct {
	Path          string     `json:"path,omitempty"`
	Destination   string     `json:"destination,omitempty"`
	AlreadyExists bool       `json:"already_exists,omitempty"`
	Entries       []FileInfo `json:"entries,omitempty"`
	Count         int        `json:"count"`
	Renamed       []Rename   `json:"renamed,omitempty"`
	Failed        []Failure  `json:"failed,omitempty"`
}

func (*FolderOp) Family() Subject { return SubjectFolder }

// ArchiveOp is the payload for compress and decompress
type ArchiveOp struct {
	Source    string   `json:"source,omitempty"`
	Archive   string   `json:"archive,omitempty"`
	OutputDir string   `json:"output_dir,omitempty"`
	Format    string   `json:"format,omitempty"`
	Files     []string `json:"files,omitempty"`
	Count     int      `json:"count"`
	Size      int64    `json:"size,omitempty"`
	Member    string   `json:"member,omitempty"`
}

func (*ArchiveOp) Family() Subject { return SubjectArchive }

// VersionEntry is one saved snapshot
type VersionEntry struct {
	Index     int       `json:"index"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// VersionOp is the payload for version save, restore and list
type VersionOp struct {
	Path        string         `json:"path,omitempty"`
	Version     int            `json:"version,omitempty"`
	VersionPath string         `json:"version_path,omitempty"`
	Requested   int            `json:"requested,omitempty"`
	Available   int            `json:"available"`
	Versions    []VersionEntry `json:"versions,omitempty"`
}

func (*VersionOp) Family() Subject { return SubjectVersion }

// Failure reports one item a tree or batch operation could not process
type Failure struct {
	Path   string    `json:"path"`
	Kind   ErrorKind `json:"kind"`
	Reason string    `json:"reason"`
}

// SyncOp is the payload for synchronize, backup and recover
type SyncOp struct {
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Copied      []string  `json:"copied"`
	Unchanged   int       `json:"unchanged"`
	Skipped     []Failure `json:"skipped,omitempty"`
	Failed      []Failure `json:"failed,omitempty"`
}

func (*SyncOp) Family() Subject { return SubjectSync }

// Match is one search hit
type Match struct {
	Path string `json:"path"`
	Kind string `json:"match_type"`
	Size int64  `json:"size"`
	Line int    `json:"line,omitempty"`
	Text string `json:"text,omitempty"`
}

// SearchOp is the payload for name, content and glob searches
type SearchOp struct {
	Root      string    `json:"root"`
	Pattern   string    `json:"pattern"`
	Mode      string    `json:"mode"`
	Matches   []Match   `json:"matches"`
	Count     int       `json:"count"`
	Truncated bool      `json:"truncated"`
	Skipped   []Failure `json:"skipped,omitempty"`
}

func (*SearchOp) Family() Subject { return SubjectSearch }

// FormatOp is the payload for structured JSON, YAML and TOML files
type FormatOp struct {
	Path   string      `json:"path"`
	Format string      `json:"format"`
	Data   interface{} `json:"data,omitempty"`
	Size   int64       `json:"size,omitempty"`
}

func (*FormatOp) Family() Subject { return SubjectFormat }
