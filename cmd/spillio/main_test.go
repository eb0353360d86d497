package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/spillio/compress"
	"github.com/arloliu/spillio/format"
	"github.com/arloliu/spillio/wire"
)

func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())

	return out.String(), err
}

func TestVarint(t *testing.T) {
	out, err := execute(t, nil, "varint", "0", "300", "0xFFFFFFFF")
	require.NoError(t, err)
	require.Equal(t, "0\t00\n300\tac 02\n4294967295\tff ff ff ff 0f\n", out)

	_, err = execute(t, nil, "varint", "4294967296")
	require.Error(t, err)
}

func TestDump(t *testing.T) {
	ctx := t.Context()
	sink := wire.NewBufferSink(nil)
	enc := wire.NewEncoder(sink)
	for _, rec := range []string{"hello", "", "world!"} {
		require.NoError(t, enc.WriteText(ctx, rec, format.LengthVarint, nil))
	}
	path := filepath.Join(t.TempDir(), "records.bin")
	require.NoError(t, os.WriteFile(path, sink.Bytes(), 0o600))

	out, err := execute(t, nil, "dump", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, []string{"0", "0", "5"}, strings.Fields(lines[1]))
	require.Equal(t, []string{"1", "6", "0"}, strings.Fields(lines[2]))
	require.Equal(t, []string{"2", "7", "6"}, strings.Fields(lines[3]))

	out, err = execute(t, nil, "dump", path, "--text", "--buffer-size", "4")
	require.NoError(t, err)
	require.Contains(t, out, `"world!"`)

	// Read as fixed-width prefixes, the same bytes run past the end of the file.
	_, err = execute(t, nil, "dump", path, "--format", "be")
	require.Error(t, err)

	_, err = execute(t, nil, "dump", path, "--format", "zigzag")
	require.Error(t, err)
}

func TestSpill(t *testing.T) {
	input := bytes.Repeat([]byte("spill me to disk please\n"), 5000)
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.txt")
	outPath := filepath.Join(dir, "out.zst")
	require.NoError(t, os.WriteFile(inPath, input, 0o600))

	out, err := execute(t, nil, "spill", inPath,
		"--threshold", "4KiB",
		"--temp-dir", dir,
		"--compress", "zstd",
		"--out", outPath,
		"--log-level", "debug",
	)
	require.NoError(t, err)
	require.Contains(t, out, fmt.Sprintf("length:   %d", len(input)))
	require.Contains(t, out, "state:    OnDisk")
	require.Contains(t, out, fmt.Sprintf("xxhash64: %016x", xxhash.Sum64(input)))
	require.Contains(t, out, "Zstd")

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	r, err := compress.NewReader(f, format.CompressionZstd)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Equal(t, input, got)

	// Only the input and output remain; the backing file is removed.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestSpill_Stdin(t *testing.T) {
	out, err := execute(t, strings.NewReader("tiny"), "spill", "--temp-dir", t.TempDir())
	require.NoError(t, err)
	require.Contains(t, out, "length:   4 (4 B)")
	require.Contains(t, out, "state:    InMemory")
}

func TestFlags_Invalid(t *testing.T) {
	_, err := execute(t, strings.NewReader(""), "spill", "--log-level", "loud")
	require.Error(t, err)

	_, err = execute(t, strings.NewReader(""), "spill", "--threshold", "lots")
	require.Error(t, err)

	_, err = execute(t, strings.NewReader(""), "spill", "--compress", "rar")
	require.Error(t, err)
}
