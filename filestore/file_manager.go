package filestore

import (
	"io"
)

type FileManager interface {
	Create(dir, fileName string, reader io.Reader) error
	Get(path, fileName string) (io.ReadCloser, error)
	GetRunDir(runID string) string
	GetResultsFilePathAndName(runID string) (string, string)
	GetStatsFilePathAndName(runID string) (string, string)
}
