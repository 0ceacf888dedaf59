package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeRegistered(t *testing.T) {
	tcs := []struct {
		desc string
		code Code
		want bool
	}{
		{desc: "ok", code: CodeOK, want: true},
		{desc: "server size limit", code: CodeSizeExceededServer, want: true},
		{desc: "form size limit", code: CodeSizeExceededForm, want: true},
		{desc: "partial", code: CodePartial, want: true},
		{desc: "no file", code: CodeNoFile, want: true},
		{desc: "no tmp dir", code: CodeNoTmpDir, want: true},
		{desc: "cant write", code: CodeCantWrite, want: true},
		{desc: "extension", code: CodeExtension, want: true},
		{desc: "historically unassigned five", code: Code(5), want: false},
		{desc: "out of table", code: Code(9), want: false},
		{desc: "negative", code: Code(-1), want: false},
	}

	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.code.Registered())
		})
	}
}

func TestCodeMessage(t *testing.T) {
	assert.Equal(t,
		"The uploaded file was only partially uploaded",
		CodePartial.Message(),
	)
	assert.Equal(t,
		"There is no error, the file uploaded with success",
		CodeOK.Message(),
	)
	assert.Empty(t, Code(5).Message())
}

func TestUploadError(t *testing.T) {
	err := NewUploadError(CodePartial)

	assert.EqualError(t, err, "The uploaded file was only partially uploaded")
	assert.Equal(t, CodePartial, err.Code())
}
