package helpertest

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// TmpFolder is a temporary directory for test files
type TmpFolder struct {
	Path  string
	Error error
}

// TmpFile is a file created in a TmpFolder
type TmpFile struct {
	Path   string
	Error  error
	Folder *TmpFolder
}

// NewTmpFolder creates a new temporary directory
func NewTmpFolder(prefix string) *TmpFolder {
	if len(prefix) == 0 {
		prefix = "rrsigcheck"
	}

	path, err := os.MkdirTemp("", prefix)

	return &TmpFolder{
		Path:  path,
		Error: err,
	}
}

// Clean removes the directory with all its content
func (tf *TmpFolder) Clean() error {
	if len(tf.Path) > 0 {
		return os.RemoveAll(tf.Path)
	}

	return nil
}

// CreateStringFile creates a file with the given lines
func (tf *TmpFolder) CreateStringFile(name string, lines ...string) *TmpFile {
	f, err := os.Create(tf.JoinPath(name))
	if err != nil {
		return &TmpFile{Error: err, Folder: tf}
	}

	w := bufio.NewWriter(f)

	_, err = w.WriteString(strings.Join(lines, "\n"))
	if err == nil {
		err = w.Flush()
	}

	return tf.checkState(f, err)
}

// JoinPath returns the path of name inside the directory
func (tf *TmpFolder) JoinPath(name string) string {
	return filepath.Join(tf.Path, name)
}

func (tf *TmpFolder) checkState(file *os.File, ierr error) *TmpFile {
	path := file.Name()

	if err := file.Close(); ierr == nil {
		ierr = err
	}

	if ierr == nil {
		_, ierr = os.Stat(path)
	}

	return &TmpFile{
		Path:   path,
		Error:  ierr,
		Folder: tf,
	}
}
