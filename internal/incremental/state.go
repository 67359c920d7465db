package incremental

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// stateDirName is the directory, next to the output file, that owns the
// accumulated base table and the last-download timestamp.
const stateDirName = ".incremental"

// StateDir returns the incremental state directory for an output path.
func StateDir(outputPath string) string {
	return filepath.Join(filepath.Dir(outputPath), stateDirName)
}

// BaseFile returns the accumulated base table path for an output path.
func BaseFile(outputPath string) string {
	return filepath.Join(StateDir(outputPath), "base.csv")
}

// TimestampFile returns the last-download timestamp path for an output
// path.
func TimestampFile(outputPath string) string {
	return filepath.Join(StateDir(outputPath), ".last_download")
}

// ReadTimestamp reads the last successful download time. The second
// return is false when no timestamp exists, which is the NoPriorState
// signal for a full fetch.
func ReadTimestamp(outputPath string) (time.Time, bool, error) {
	data, err := os.ReadFile(TimestampFile(outputPath))
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse %s: %w", TimestampFile(outputPath), err)
	}
	return ts, true, nil
}

// WriteTimestamp records the last successful download time as a single
// ISO-8601 timestamp with UTC offset.
func WriteTimestamp(outputPath string, ts time.Time) error {
	return writeFileAtomic(TimestampFile(outputPath), []byte(ts.Format(time.RFC3339Nano)))
}

// writeFileAtomic writes via a temp file in the destination directory and
// renames it into place, so a crash never leaves a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// copyFileAtomic replaces dst with the contents of src.
func copyFileAtomic(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return writeFileAtomic(dst, data)
}
