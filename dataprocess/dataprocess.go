// Package dataprocess manages code related to the data-saving process.
package dataprocess

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const (
	// TimeFormat is the timestamp format used in the dataprocess.
	TimeFormat = "2006-01-02T15:04:05.0000Z"
)

// CreateTimestampFilename creates an absolute filename with a camera name and timestamp written
// into the filename.
func CreateTimestampFilename(dataDirectory, cameraName, fileType string, timeStamp time.Time) string {
	return filepath.Join(dataDirectory, cameraName+"_data_"+timeStamp.UTC().Format(TimeFormat)+fileType)
}

// WriteJSONToFile encodes v as indented JSON and then saves it to the passed filename.
func WriteJSONToFile(v interface{}, filename string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding json")
	}
	return WriteBytesToFile(data, filename)
}

// WriteBytesToFile writes the passed bytes to the passed filename.
func WriteBytesToFile(bytes []byte, filename string) error {
	//nolint:gosec
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if _, err := w.Write(bytes); err != nil {
		return multierr.Combine(errors.Wrapf(err, "writing %s", filename), f.Close())
	}
	if err := w.Flush(); err != nil {
		return multierr.Combine(err, f.Close())
	}
	return f.Close()
}
