package upload

// Code classifies the outcome of a file upload. The numeric values
// are a wire contract shared with interoperating callers; they must
// never be renumbered. Value 5 is historically unassigned.
type Code int

const (
	CodeOK                 Code = 0
	CodeSizeExceededServer Code = 1
	CodeSizeExceededForm   Code = 2
	CodePartial            Code = 3
	CodeNoFile             Code = 4
	CodeNoTmpDir           Code = 6
	CodeCantWrite          Code = 7
	CodeExtension          Code = 8
)

var codeMessages = map[Code]string{
	CodeOK:                 "There is no error, the file uploaded with success",
	CodeSizeExceededServer: "The uploaded file exceeds the maximum size allowed by the server",
	CodeSizeExceededForm:   "The uploaded file exceeds the maximum size declared in the form",
	CodePartial:            "The uploaded file was only partially uploaded",
	CodeNoFile:             "No file was uploaded",
	CodeNoTmpDir:           "Missing a temporary folder",
	CodeCantWrite:          "Failed to write file to disk",
	CodeExtension:          "An extension stopped the file upload",
}

// Registered reports whether c is one of the assigned codes.
func (c Code) Registered() bool {
	_, ok := codeMessages[c]
	return ok
}

// Message returns the canonical human-readable message for c, or ""
// for an unassigned code.
func (c Code) Message() string {
	return codeMessages[c]
}

// UploadError reports a failed upload by its wire code.
type UploadError struct {
	code Code
}

// NewUploadError wraps a registered failure code. The zero-value
// behavior for unregistered codes is an empty message; callers are
// expected to check Registered first.
func NewUploadError(c Code) *UploadError {
	return &UploadError{code: c}
}

func (e *UploadError) Error() string {
	return e.code.Message()
}

// Code returns the wire code the error carries.
func (e *UploadError) Code() Code {
	return e.code
}
