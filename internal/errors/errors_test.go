package errors

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "decoding error names the file",
			err:      DecodingError("_posts/broken.md", fmt.Errorf("closing delimiter missing")),
			expected: "error decoding file (filename=_posts/broken.md): closing delimiter missing",
		},
		{
			name:     "io error carries op and path",
			err:      IOError("read", "/tmp/x", fs.ErrNotExist),
			expected: "encountered an I/O error: read (path=/tmp/x): file does not exist",
		},
		{
			name:     "missing template",
			err:      MissingTemplate("post", "hello"),
			expected: "template not found (key=hello template=post)",
		},
		{
			name:     "invalid config",
			err:      InvalidConfig("permalink", "must be flat or date"),
			expected: "invalid configuration: must be flat or date (field=permalink)",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, test.err.Error())
		})
	}
}

func TestKind_DescriptionIsDerived(t *testing.T) {
	kinds := []Kind{KindDecoding, KindIO, KindInvalidConfig, KindMissingTemplate, KindDuplicateKey, KindUnresolvedPlaceholder}
	seen := map[string]Kind{}
	for _, k := range kinds {
		d := k.Description()
		require.NotEmpty(t, d)
		_, dup := seen[d]
		require.False(t, dup, "description %q reused", d)
		seen[d] = k
	}
	require.Equal(t, "internal error", Kind("bogus").Description())
}

func TestError_WithContext(t *testing.T) {
	err := DuplicateKey("document", "hello", "2021-01-01-hello.md", "hello.md")

	require.Equal(t, "hello", err.Context["key"])
	require.Equal(t, "2021-01-01-hello.md", err.Context["first"])
	require.Equal(t, "hello.md", err.Context["second"])
	require.Equal(t, "key=hello first=2021-01-01-hello.md second=hello.md", err.Detail())
}

func TestIsKind_WalksWrappedChain(t *testing.T) {
	inner := DecodingError("a.md", stdErrors.New("bad yaml"))
	outer := fmt.Errorf("load documents: %w", inner)

	require.True(t, IsKind(outer, KindDecoding))
	require.False(t, IsKind(outer, KindIO))
	require.False(t, IsKind(fmt.Errorf("plain"), KindDecoding))
	require.Equal(t, KindDecoding, GetKind(outer))
	require.Equal(t, KindInternal, GetKind(fmt.Errorf("plain")))
}

func TestIs_MatchesBareKindTarget(t *testing.T) {
	err := fmt.Errorf("render: %w", MissingTemplate("post", "k"))
	require.True(t, stdErrors.Is(err, &Error{Kind: KindMissingTemplate}))
	require.False(t, stdErrors.Is(err, &Error{Kind: KindDecoding}))
}

func TestUnwrap_ExposesCause(t *testing.T) {
	err := IOError("write", "/out/x.html", fs.ErrPermission)
	require.ErrorIs(t, err, fs.ErrPermission)
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)
	require.Equal(t, 0, a.ExitCodeFor(nil))
	require.Equal(t, 1, a.ExitCodeFor(fmt.Errorf("plain")))
	require.Equal(t, 7, a.ExitCodeFor(InvalidConfig("x", "y")))
	require.Equal(t, 3, a.ExitCodeFor(fmt.Errorf("wrap: %w", DecodingError("a.md", nil))))
	require.Equal(t, 3, a.ExitCodeFor(MissingTemplate("t", "k")))
	require.Equal(t, 11, a.ExitCodeFor(IOError("read", "p", nil)))
	require.Equal(t, 10, a.ExitCodeFor(InternalError("boom", nil)))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, stderr bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	a := NewCLIErrorAdapter(false, logger)
	a.stderr = &stderr
	code := -1
	a.exit = func(c int) { code = c }

	a.HandleError(DecodingError("_posts/bad.md", stdErrors.New("bad yaml")))

	require.Equal(t, 3, code)
	require.Equal(t, "Error: error decoding file (filename=_posts/bad.md)\n", stderr.String())
	require.Contains(t, logs.String(), "kind=decoding")
	require.Contains(t, logs.String(), "filename=_posts/bad.md")
}

func TestCLIErrorAdapter_VerboseIncludesCause(t *testing.T) {
	a := NewCLIErrorAdapter(true, nil)
	msg := a.FormatError(DecodingError("x.md", stdErrors.New("line 3: mapping values are not allowed")))
	require.Contains(t, msg, "line 3")
}
