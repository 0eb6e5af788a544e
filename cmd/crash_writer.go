package cmd

import (
	"os"
)

// CrashWriter appends whatever it's given (a panic's stack trace, written
// by main's recover handler) to fileName, opening and closing the file on
// every write since crash output is rare and the process may not get a
// chance to close a held-open handle.
type CrashWriter struct {
	fileName string
}

// NewCrashWriter returns a CrashWriter appending to fileName.
func NewCrashWriter(fileName string) *CrashWriter {
	return &CrashWriter{fileName: fileName}
}

func (w *CrashWriter) Write(p []byte) (n int, err error) {
	f, err := os.OpenFile(w.fileName, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	n, err = f.Write(p)

	return
}
